package main

import (
	"bytes"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/popup"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/stretchr/testify/require"
)

func TestRenderResources(t *testing.T) {
	var buf bytes.Buffer
	renderResources(&buf, providers.GitHub, providers.Followers, []resources.Resource{{ID: "9", Login: "octocat"}})
	require.Contains(t, buf.String(), "octocat")
	require.Contains(t, buf.String(), "1 total")

	buf.Reset()
	renderResources(&buf, providers.Jira, providers.Dashboard, nil)
	require.Contains(t, buf.String(), "No jira dashboard cached")
}

func TestRenderReports(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()
	renderReports(&buf, []*syncer.Report{
		{
			Provider:   providers.GitHub,
			Outcomes:   []syncer.Outcome{{Kind: providers.Repos, Persisted: true, Count: 3}, {Kind: providers.Followers, Err: apperrors.ErrFetchFailed}},
			StartedAt:  now,
			FinishedAt: now.Add(20 * time.Millisecond),
		},
		{Provider: providers.Jira, Skipped: true},
	})

	out := buf.String()
	require.Contains(t, out, "repos=3 followers=failed")
	require.Contains(t, out, "1 failed")
	require.Contains(t, out, "not logged in")
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, []popup.ProviderStatus{{
		Provider: providers.Jira,
		LoggedIn: true,
		Entities: []popup.EntityStatus{{Kind: providers.Project, Count: 2}},
	}})
	require.Contains(t, buf.String(), "project")
	require.Contains(t, buf.String(), "yes")
}

func TestParseSelection(t *testing.T) {
	p, kinds, err := parseSelection([]string{"github"})
	require.NoError(t, err)
	require.Equal(t, providers.GitHub, p)
	require.Equal(t, []providers.EntityKind{providers.Repos, providers.Followers}, kinds)

	_, kinds, err = parseSelection([]string{"jira", "dashboard"})
	require.NoError(t, err)
	require.Equal(t, []providers.EntityKind{providers.Dashboard}, kinds)

	_, _, err = parseSelection([]string{"github", "dashboard"})
	require.Error(t, err)

	_, _, err = parseSelection([]string{"gitlab"})
	require.Error(t, err)
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "sync", "login", "status", "show", "fetch"} {
		require.True(t, names[want], want)
	}
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
