package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	ItemBatchSize     int

	// Fetch behavior
	UserAgent     string
	FetchTimeout  int
	FetchDelayMs  int
	FetchLimit    int
	ExtractLimit  int
	FetchFullText bool

	// Enrichment (LLM) configuration
	LLMEndpoint    string
	LLMModel       string
	LLMAPIKey      string
	TargetLanguage string

	// Run modes
	RunOnce    bool
	SourceName string
	DryRun     bool
	AllSources bool

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
