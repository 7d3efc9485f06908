// Package config loads vatfiler's configuration.
//
// Values are layered, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. config.yaml (the working directory, or an explicit --config path)
//  3. A .env file, read without mutating the process environment
//  4. Process environment variables
//
// Environment variable names follow the original deployment
// (HMRC_CLIENT_ID, HMRC_CLIENT_SECRET, HMRC_REDIRECT_URI, BASE_URL,
// SESSION_SECRET, DATA_DIR) plus VATFILER_* for settings that are new.
//
// Example config.yaml:
//
//	server:
//	  listen: localhost:3000
//	authority:
//	  baseUrl: https://test-api.service.hmrc.gov.uk
//	  clientId: my-client-id
//	  redirectUri: http://localhost:3000/oauth/hmrc/callback
//	storage:
//	  dataDir: ./data
//	oauth:
//	  stateTTL: 10m
//	fraudPrevention:
//	  deviceIdMode: persistent
package config
