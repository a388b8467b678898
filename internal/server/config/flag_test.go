package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags set", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "planner.db", "-o", "/var/lib/planner", "-s", "secret",
			"-t", "60", "-v", "5", "-m", "smtp.example.org", "-r", "465", "-u", "mailer", "-p", "mailpass",
			"-f", "planner@example.org", "-b", "exports", "-g", "us-west-1", "-e", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:            "127.0.0.1:9090",
				DatabaseDSN:             "planner.db",
				DataDir:                 "/var/lib/planner",
				SecretKey:               "secret",
				SessionValidityDuration: 60 * time.Minute,
				CodeValidityDuration:    5 * time.Minute,
				SMTPHost:                "smtp.example.org",
				SMTPPort:                465,
				SMTPUser:                "mailer",
				SMTPPassword:            "mailpass",
				MailFrom:                "planner@example.org",
				S3Bucket:                "exports",
				S3Region:                "us-west-1",
				S3BaseEndpoint:          "http://endpoint",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
