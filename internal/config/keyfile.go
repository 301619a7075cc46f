package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadAPIKeyFile parses a credentials file of the form:
//
//	# comment
//	api_key=YOUR_API_KEY
//	api_secret=YOUR_API_SECRET
func loadAPIKeyFile(path string) (string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open api key file: %w", err)
	}
	defer file.Close()

	var key, secret string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch name {
		case "api_key":
			key = value
		case "api_secret":
			secret = value
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("read api key file: %w", err)
	}

	if key == "" || secret == "" {
		return "", "", fmt.Errorf("api key file %s missing api_key or api_secret", path)
	}
	return key, secret, nil
}
