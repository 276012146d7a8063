// config.go - Konfiguration ueber Environment-Variablen
//
// Dieses Modul enthaelt:
// - Home: Gibt das Basis-Verzeichnis zurueck (BERT_HOME)
// - CacheDir: Gibt das Cache-Verzeichnis zurueck (BERT_CACHE)
// - Offline: Unterbindet Netzwerk-Zugriffe (BERT_OFFLINE)
// - LogLevel: Gibt das Log-Level zurueck (BERT_DEBUG)
package envconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Home gibt das Basis-Verzeichnis zurueck
// Konfigurierbar via BERT_HOME
// Default: $HOME/.bert
func Home() string {
	if s := Var("BERT_HOME"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".bert")
}

// CacheDir gibt das Cache-Verzeichnis fuer Modell-Artefakte zurueck
// Konfigurierbar via BERT_CACHE
// Default: $BERT_HOME/cache
func CacheDir() string {
	if s := Var("BERT_CACHE"); s != "" {
		return s
	}

	return filepath.Join(Home(), "cache")
}

// Offline gibt zurueck, ob Netzwerk-Zugriffe unterbunden sind
// Konfigurierbar via BERT_OFFLINE
func Offline() bool {
	if s := Var("BERT_OFFLINE"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return true
		}
		return b
	}
	return false
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via BERT_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BERT_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
