package config

import (
	"fmt"
	"sort"
	"strings"
)

// Environments.
const (
	EnvProd = "prod"
	EnvTest = "test"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "US"

// regionHosts maps a region to its host prefix. US has none.
var regionHosts = map[string]string{
	"US":                   "",
	"EUROPE":               "europe-",
	"ASIA-SOUTHEAST1":      "asia-southeast1-",
	"EUROPE-WEST2":         "europe-west2-",
	"AUSTRALIA-SOUTHEAST1": "australia-southeast1-",
}

// Regions returns the supported regions in sorted order.
func Regions() []string {
	out := make([]string, 0, len(regionHosts))
	for r := range regionHosts {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// BaseURL returns the API base URL of a region and environment. Both are
// matched case-insensitively.
func BaseURL(region, env string) (string, error) {
	prefix, ok := regionHosts[strings.ToUpper(region)]
	if !ok {
		return "", fmt.Errorf("invalid region %q, valid regions: %s", region, strings.Join(Regions(), ", "))
	}

	switch strings.ToLower(env) {
	case EnvProd, "":
		return "https://" + prefix + "backstory.googleapis.com", nil
	case EnvTest:
		return "https://test-" + prefix + "backstory.sandbox.googleapis.com", nil
	default:
		return "", fmt.Errorf("invalid environment %q, valid environments: %s, %s", env, EnvProd, EnvTest)
	}
}
