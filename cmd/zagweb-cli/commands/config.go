package commands

import (
	"errors"
	"os"
	"zagweb-backend/lib/configutil"
	"zagweb-backend/lib/restyutil"
	"zagweb-backend/lib/scrapers/zagweb"
	"zagweb-backend/lib/serviceutil"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseUrl      string `json:"base_url"`
	StudentId    string `json:"student_id"`
	Pin          string `json:"pin"`
	FreezePhrase string `json:"freeze_phrase"`
}

// credentials come from config.json5, a .env file, or the process
// environment, in increasing priority. they are held for the duration
// of one command invocation and never written anywhere.
func loadConfig() Config {
	godotenv.Load()

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	if v := os.Getenv("ZAGWEB_STUDENT_ID"); v != "" {
		cfg.StudentId = v
	}
	if v := os.Getenv("ZAGWEB_PIN"); v != "" {
		cfg.Pin = v
	}

	if cfg.StudentId == "" || cfg.Pin == "" {
		serviceutil.Fatal(
			"missing credentials",
			errors.New("set student_id/pin in config.json5 or ZAGWEB_STUDENT_ID/ZAGWEB_PIN in the environment"),
		)
	}
	return cfg
}

func createClient(cfg Config) *zagweb.Client {
	client, err := zagweb.NewClient(zagweb.ClientOptions{
		BaseUrl:      cfg.BaseUrl,
		FreezePhrase: cfg.FreezePhrase,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize zagweb client", err)
	}
	if *verbose {
		zagweb.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/zagweb"))
	}
	return client
}
