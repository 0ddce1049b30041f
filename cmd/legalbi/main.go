// Command legalbi extracts the legal-case star schema from a relational
// database, validates every table, writes one CSV per table and appends an
// audit trail of the run.
//
// Exit codes: 0 clean run, 1 fatal error (config, connectivity, audit store,
// commit), 2 run completed but a table failed or exceeded the reject ratio.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	var opts options

	flag.StringVar(&opts.configPath, "config", defaultConfigPath, "config JSON path (built-in defaults when the default file is absent)")
	flag.StringVar(&opts.envFile, "env-file", ".env", "optional KEY=VALUE file loaded before LEGALBI_* overrides")
	flag.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&opts.verbose, "v", false, "enable verbose logs")
	flag.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend to use: none, pushgateway, datadog (overrides env METRICS_BACKEND; default none)")
	flag.StringVar(&opts.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&opts.statsdAddr, "statsd-addr", "", "DogStatsD address (overrides env DD_DOGSTATSD_ADDR)")
	flag.Parse()

	opts.configSet = flagWasSet("config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
