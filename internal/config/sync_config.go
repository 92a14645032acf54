package config

type SyncConfig interface {
	GetSyncSchedule() string
	GetSyncOnStartup() bool
}

type Sync struct {
	s Settings
}

var _ SyncConfig = Sync{}

// GetSyncSchedule returns the cron spec for the background refresh. An empty
// string disables it.
func (s Sync) GetSyncSchedule() string {
	return s.s.SyncSchedule
}

func (s Sync) GetSyncOnStartup() bool {
	return s.s.SyncOnStartup
}

type Store struct {
	s Settings
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	return s.s.StoreBackend
}

func (s Store) GetDataFolder() string {
	return s.s.DataFolder
}

type Events struct {
	s Settings
}

var _ EventsConfig = Events{}

func (e Events) GetEventRate() float64 {
	return e.s.EventRate
}

func (e Events) GetEventBurst() int {
	return e.s.EventBurst
}
