// Package config resolves the performance suite settings. Every setting is
// looked up with the precedence: environment variable > configuration file >
// hardcoded default. The configuration file (CONFIG_PATH, defaulting to
// config.json in the working directory) is optional and is read once per
// Resolver. Every resolved value is recorded for diagnostic output.
package config
