package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with LEGALBI_* environment variables. Secrets for
// object storage are only ever read from the environment.
func ApplyEnv(c *Config) {
	c.Job = getenvString("LEGALBI_JOB", c.Job)
	c.Source.Kind = getenvString("LEGALBI_SOURCE_KIND", c.Source.Kind)
	c.Source.DSN = getenvString("LEGALBI_SOURCE_DSN", c.Source.DSN)
	c.Output.Dir = getenvString("LEGALBI_OUTPUT_DIR", c.Output.Dir)
	c.Audit.Kind = getenvString("LEGALBI_AUDIT_KIND", c.Audit.Kind)
	c.Audit.DSN = getenvString("LEGALBI_AUDIT_DSN", c.Audit.DSN)
	c.Validation.MaxRejectRatio = getenvFloat("LEGALBI_MAX_REJECT_RATIO", c.Validation.MaxRejectRatio)
	c.Validation.SampleSize = pickInt(getenvInt("LEGALBI_SAMPLE_SIZE", 0), c.Validation.SampleSize)

	c.Publish.S3.Bucket = getenvString("LEGALBI_S3_BUCKET", c.Publish.S3.Bucket)
	c.Publish.S3.Region = getenvString("LEGALBI_S3_REGION", c.Publish.S3.Region)
	c.Publish.S3.Endpoint = getenvString("LEGALBI_S3_ENDPOINT", c.Publish.S3.Endpoint)
	c.Publish.S3.AccessKeyID = getenvString("LEGALBI_S3_ACCESS_KEY_ID", c.Publish.S3.AccessKeyID)
	c.Publish.S3.SecretAccessKey = getenvString("LEGALBI_S3_SECRET_ACCESS_KEY", c.Publish.S3.SecretAccessKey)
}

func getenvString(k, def string) string {
	if s := os.Getenv(k); s != "" {
		return s
	}
	return def
}

func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if s := os.Getenv(k); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
