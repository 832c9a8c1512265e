package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeptools/gw-contracts/conf"
)

const envPrefix = "CONTRACTS"

// options override .core.json. Flags win over CONTRACTS_* variables.
type options struct {
	AppRoot string
	Listen  string
	Host    string
	UDSPath string
}

func loadOptions(args []string) (*options, error) {
	fs := pflag.NewFlagSet("contractsd", pflag.ContinueOnError)
	fs.String("app-root", ".", "Application root holding config/, data/ and run/")
	fs.String("listen", "", "HTTP listen address ip:port (overrides .core.json)")
	fs.String("host", "", "Public host name (overrides .core.json)")
	fs.String("uds", "", "Control socket path (overrides .core.json)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: contractsd [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables use the %s_ prefix, e.g. %s_LISTEN.\n", envPrefix, envPrefix)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return &options{
		AppRoot: v.GetString("app-root"),
		Listen:  v.GetString("listen"),
		Host:    v.GetString("host"),
		UDSPath: v.GetString("uds"),
	}, nil
}

func (o *options) apply(c *conf.Core[string]) {
	if o.Listen != "" {
		c.Listen = o.Listen
	}
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.UDSPath != "" {
		c.UDSPath = o.UDSPath
	}
}
