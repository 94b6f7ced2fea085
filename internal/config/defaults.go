package config

const (
	defaultConfigPath           = "~/.config/vuoro/config.toml"
	defaultDataDir              = "~/.local/share/vuoro"
	defaultLogDir               = "~/.local/share/vuoro/logs"
	defaultBind                 = "0.0.0.0:8000"
	defaultAdminPath            = "secret-admin-panel"
	defaultStoreBackend         = "json"
	defaultStoreFile            = "queue_db.json"
	defaultSQLiteFile           = "queue.db"
	defaultButtonChip           = "gpiochip0"
	defaultButtonPin            = 17
	defaultButtonBias           = "pull_up"
	defaultButtonPollMS         = 50
	defaultButtonDebounceMS     = 500
	defaultButtonRetryMS        = 1000
	defaultPrinterDevice        = "/dev/usb/lp0"
	defaultPrinterVendorID      = "0fe6"
	defaultPrinterProductID     = "811e"
	defaultPrinterCodepage      = "cp850"
	defaultPrinterHeader        = "VUORONUMERO"
	defaultSoundPlayer          = "aplay"
	defaultSoundFile            = "ding.wav"
	defaultDisplayPollMS        = 200
	defaultDisplayHistoryWindow = 10
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:      defaultBind,
			AdminPath: defaultAdminPath,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Button: Button{
			Enabled:        true,
			Chip:           defaultButtonChip,
			GPIOPin:        defaultButtonPin,
			Bias:           defaultButtonBias,
			ActiveLow:      true,
			PollIntervalMS: defaultButtonPollMS,
			DebounceMS:     defaultButtonDebounceMS,
			RetryBackoffMS: defaultButtonRetryMS,
			LEDPin:         -1,
		},
		Printer: Printer{
			Enabled:   true,
			Device:    defaultPrinterDevice,
			VendorID:  defaultPrinterVendorID,
			ProductID: defaultPrinterProductID,
			Codepage:  defaultPrinterCodepage,
			Header:    defaultPrinterHeader,
			Hotplug:   true,
		},
		Sound: Sound{
			Enabled: true,
			Player:  defaultSoundPlayer,
			File:    defaultSoundFile,
		},
		Display: Display{
			PollIntervalMS: defaultDisplayPollMS,
			HistoryWindow:  defaultDisplayHistoryWindow,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			PrinterAlerts:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
