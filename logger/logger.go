package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"go-ledger-api/config"
)

// Log is the shared application logger. Init must be called before use.
var Log *logrus.Logger

func Init() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)

	if config.AppConfig.Server.Env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
