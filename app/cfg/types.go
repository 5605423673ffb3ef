package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port                 string
	RefreshIntervalHours int
	MaxVideosPerChannel  int
	InstagramCookieFile  string
	SchedulerInterval    int
	ChannelsFile         string
	APIAccessKey         string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
