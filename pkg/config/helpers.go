package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SetValue sets a configuration value by key
// Supported keys:
//   - root_dir, agda_dir, cache_dir: string - directories
//   - http_timeout, process_timeout: duration - e.g. 30s, 2h
//   - bundle_licenses, color_output: bool
//   - license_url_template: string - must contain {name}
//   - license_concurrency: int
//   - log_level: string - debug, info, warn, error
//   - log_format: string - text, json
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "root_dir":
		c.Settings.RootDir = value
	case "agda_dir":
		c.Settings.AgdaDir = value
	case "cache_dir":
		c.Settings.CacheDir = value
	case "http_timeout", "process_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		if key == "http_timeout" {
			c.Settings.HTTPTimeout = d
		} else {
			c.Settings.ProcessTimeout = d
		}
	case "bundle_licenses", "color_output":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		if key == "bundle_licenses" {
			c.Settings.BundleLicenses = boolVal
		} else {
			c.Settings.ColorOutput = boolVal
		}
	case "license_url_template":
		c.Settings.LicenseURLTemplate = value
	case "license_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.LicenseConcurrency = n
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return c.Validate()
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	if v, ok := c.ToMap()[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown configuration key: %s", key)
}

// Keys returns the settings keys in order.
func (c *Config) Keys() []string {
	m := c.ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap renders the settings as strings keyed by their YAML names.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "cache_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]
		fieldValue := settingsValue.Field(i)

		if yamlKey == "auth" {
			// Credentials are not displayed, only the hosts they apply to.
			hosts := make([]string, 0, fieldValue.Len())
			for _, k := range fieldValue.MapKeys() {
				hosts = append(hosts, k.String())
			}
			sort.Strings(hosts)
			result[yamlKey] = strings.Join(hosts, ",")
			continue
		}

		var strValue string
		switch fieldValue.Kind() {
		case reflect.Bool:
			strValue = strconv.FormatBool(fieldValue.Bool())
		case reflect.Int64:
			if fieldValue.Type() == reflect.TypeOf(time.Duration(0)) {
				strValue = time.Duration(fieldValue.Int()).String()
			} else {
				strValue = strconv.FormatInt(fieldValue.Int(), 10)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			strValue = strconv.FormatInt(fieldValue.Int(), 10)
		case reflect.Slice:
			parts := make([]string, fieldValue.Len())
			for j := range parts {
				parts[j] = fmt.Sprint(fieldValue.Index(j).Interface())
			}
			strValue = strings.Join(parts, ",")
		case reflect.String:
			strValue = fieldValue.String()
		case reflect.Struct:
			strValue = fmt.Sprintf("%+v", fieldValue.Interface())
		default:
			strValue = fmt.Sprintf("%v", fieldValue.Interface())
		}

		result[yamlKey] = strValue
	}

	return result
}
