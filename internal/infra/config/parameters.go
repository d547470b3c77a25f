// Package config loads the bot parameters file.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the parameters file looked up when none is given.
const DefaultFileName = "CryptoArb.conf"

// ErrMissingKey is returned when a required parameter is absent.
var ErrMissingKey = errors.New("parameter not found")

// ExchangeParams groups the per-exchange keys.
type ExchangeParams struct {
	APIKey    string
	SecretKey string
	Fees      float64
	Enable    bool
	// ClientID is only read for Bitstamp.
	ClientID string
}

// Parameters is the full bot configuration.
type Parameters struct {
	SpreadEntry         float64
	SpreadTarget        float64
	MaxLength           uint
	PriceDeltaLimit     float64
	TrailingSpreadLim   float64
	TrailingSpreadCount uint
	OrderBookFactor     float64
	DemoMode            bool
	Leg1                string
	Leg2                string
	Verbose             bool
	// Interval is the pause between polling iterations.
	Interval          time.Duration
	DebugMaxIteration uint
	UseFullExposure   bool
	TestedExposure    float64
	MaxExposure       float64
	UseVolatility     bool
	VolatilityPeriod  uint
	CACert            string

	OkCoin   ExchangeParams
	Bitstamp ExchangeParams
	Gemini   ExchangeParams
	Kraken   ExchangeParams
	Binance  ExchangeParams

	// DBFile is the Postgres DSN for quote persistence. Empty disables it.
	DBFile string

	RetryMaxAttempts uint
	RetryInterval    time.Duration
	RequestRate      float64
	Environment      string
	OTLPEndpoint     string
	OTLPInsecure     bool
	TelemetryEnabled bool

	// Path is the file the parameters were read from.
	Path string
}

// Load locates name and parses it. Plain names are searched for in the
// working directory, $HOME/.config, $APPDATA and /etc, in that order. Files
// ending in .yaml or .yml are decoded as YAML, anything else as key=value
// lines.
func Load(name string) (Parameters, error) {
	path := FindFile(name)
	file, err := os.Open(path) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return Parameters{}, fmt.Errorf("open parameters: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var values map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		values, err = readYAML(file)
	default:
		values, err = readKeyValues(file)
	}
	if err != nil {
		return Parameters{}, fmt.Errorf("read %s: %w", path, err)
	}

	params, err := FromValues(values)
	if err != nil {
		return Parameters{}, fmt.Errorf("%s: %w", path, err)
	}
	params.Path = path
	return params, nil
}

// FindFile returns the first existing candidate for name, or name itself.
func FindFile(name string) string {
	for _, candidate := range searchPath(name) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return name
}

func searchPath(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}
	candidates := []string{name}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", name))
	}
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		candidates = append(candidates, filepath.Join(appdata, name))
	}
	return append(candidates, filepath.Join("/etc", name))
}

// readKeyValues parses one key=value assignment per line. Lines starting
// with # are comments. The first assignment of a key wins.
func readKeyValues(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if _, seen := values[key]; seen {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func readYAML(r io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	values := make(map[string]string, len(doc))
	for key, node := range doc {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %s: expected a scalar value", key)
		}
		values[key] = strings.TrimSpace(node.Value)
	}
	return values, nil
}

type reader struct {
	values map[string]string
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	value, ok := r.values[key]
	return value, ok
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) required(key string) string {
	value, ok := r.raw(key)
	if !ok {
		r.fail(fmt.Errorf("%w: %s", ErrMissingKey, key))
	}
	return value
}

func (r *reader) requiredFloat(key string) float64 {
	return r.parseFloat(key, r.required(key))
}

func (r *reader) parseFloat(key, value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid number %q", key, value))
	}
	return f
}

func (r *reader) requiredUint(key string) uint {
	return r.parseUint(key, r.required(key))
}

func (r *reader) parseUint(key, value string) uint {
	if value == "" {
		return 0
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid unsigned integer %q", key, value))
	}
	return uint(n)
}

// requiredBool follows the file convention: only the literal "true" is true.
func (r *reader) requiredBool(key string) bool {
	return r.required(key) == "true"
}

func (r *reader) exchange(prefix string) ExchangeParams {
	return ExchangeParams{
		APIKey:    r.required(prefix + "ApiKey"),
		SecretKey: r.required(prefix + "SecretKey"),
		Fees:      r.requiredFloat(prefix + "Fees"),
		Enable:    r.requiredBool(prefix + "Enable"),
	}
}

func (r *reader) optionalString(key, fallback string) string {
	if value, ok := r.raw(key); ok && value != "" {
		return value
	}
	return fallback
}

func (r *reader) optionalUint(key string, fallback uint) uint {
	if value, ok := r.raw(key); ok && value != "" {
		return r.parseUint(key, value)
	}
	return fallback
}

func (r *reader) optionalFloat(key string, fallback float64) float64 {
	if value, ok := r.raw(key); ok && value != "" {
		return r.parseFloat(key, value)
	}
	return fallback
}

func (r *reader) optionalBool(key string) bool {
	value, _ := r.raw(key)
	return value == "true"
}

// optionalDuration accepts Go durations ("1500ms") or whole seconds ("2").
func (r *reader) optionalDuration(key string, fallback time.Duration) time.Duration {
	value, ok := r.raw(key)
	if !ok || value == "" {
		return fallback
	}
	if seconds, err := strconv.ParseUint(value, 10, 32); err == nil {
		return time.Duration(seconds) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		r.fail(fmt.Errorf("%s: invalid duration %q", key, value))
		return fallback
	}
	return d
}

// FromValues builds Parameters from raw key/value pairs, applying defaults
// for optional keys and validating the result.
func FromValues(values map[string]string) (Parameters, error) {
	r := &reader{values: values}
	p := Parameters{
		SpreadEntry:         r.requiredFloat("SpreadEntry"),
		SpreadTarget:        r.requiredFloat("SpreadTarget"),
		MaxLength:           r.requiredUint("MaxLength"),
		PriceDeltaLimit:     r.requiredFloat("PriceDeltaLimit"),
		TrailingSpreadLim:   r.requiredFloat("TrailingSpreadLim"),
		TrailingSpreadCount: r.requiredUint("TrailingSpreadCount"),
		OrderBookFactor:     r.requiredFloat("OrderBookFactor"),
		DemoMode:            r.requiredBool("DemoMode"),
		Leg1:                r.required("Leg1"),
		Leg2:                r.required("Leg2"),
		Verbose:             r.requiredBool("Verbose"),
		Interval:            time.Duration(r.requiredUint("Interval")) * time.Second,
		DebugMaxIteration:   r.requiredUint("DebugMaxIteration"),
		UseFullExposure:     r.requiredBool("UseFullExposure"),
		TestedExposure:      r.requiredFloat("TestedExposure"),
		MaxExposure:         r.requiredFloat("MaxExposure"),
		UseVolatility:       r.requiredBool("UseVolatility"),
		VolatilityPeriod:    r.requiredUint("VolatilityPeriod"),
		CACert:              r.required("CACert"),
		OkCoin:              r.exchange("OkCoin"),
		Bitstamp:            r.exchange("Bitstamp"),
		Gemini:              r.exchange("Gemini"),
		Kraken:              r.exchange("Kraken"),
		Binance:             r.exchange("Binance"),
		DBFile:              r.required("DBFile"),
		RetryMaxAttempts:    r.optionalUint("RetryMaxAttempts", 0),
		RetryInterval:       r.optionalDuration("RetryInterval", 2*time.Second),
		RequestRate:         r.optionalFloat("RequestRate", 0),
		Environment:         strings.ToLower(r.optionalString("Environment", "development")),
		OTLPEndpoint:        r.optionalString("OTLPEndpoint", ""),
		OTLPInsecure:        r.optionalBool("OTLPInsecure"),
		TelemetryEnabled:    r.optionalBool("TelemetryEnabled"),
	}
	p.Bitstamp.ClientID = r.required("BitstampClientId")
	if r.err != nil {
		return Parameters{}, r.err
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// ErrUnsupportedPair is returned for any trading pair other than BTC/USD.
var ErrUnsupportedPair = errors.New("only the BTC/USD pair is supported")

// Validate performs semantic validation on the parameters.
func (p Parameters) Validate() error {
	if p.Leg1 != "BTC" || p.Leg2 != "USD" {
		return fmt.Errorf("%w: got %s/%s", ErrUnsupportedPair, p.Leg1, p.Leg2)
	}
	if p.RequestRate < 0 {
		return fmt.Errorf("RequestRate must be >= 0")
	}
	return nil
}
