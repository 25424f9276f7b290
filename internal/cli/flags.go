package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile   string
	EnvFile   string
	Ephemeral bool
	LogLevel  string
	LogFormat string
	Locale    string

	// translate
	Source    string
	Target    string
	BatchFile string
	Speak     bool

	// history clear
	Archive bool

	// phrases suggest
	Context string

	// learn export
	ExportAudio bool

	// login and signup
	Email    string
	Password string
	FullName string
	Country  string

	// speak and learn export
	OutputFile    string
	AudioProvider string
	OpenAIVoice   string
	TTSModel      string

	// serve
	Addr string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		EnvFile:       ".env",
		Locale:        "en",
		Source:        "en",
		Target:        "mrt",
		AudioProvider: "auto",
		TTSModel:      "gpt-4o-mini-tts",
		Addr:          ":8080",
	}
}
