// Package detect guesses the character encoding of delimited export files and
// parses them leniently into raw tables.
package detect

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"inventoryetl/table"
)

// LocaleProfile региональная кодовая страница выгрузок и метки, с которыми ее
// путает статистический детектор.
type LocaleProfile struct {
	Codepage   string
	Collisions []string
}

// ThaiProfile профиль тайских выгрузок Windows.
var ThaiProfile = LocaleProfile{
	Codepage:   "windows-874",
	Collisions: []string{"shift_jis", "iso-8859-1", "windows-1252"},
}

// Config настройки определения кодировки.
type Config struct {
	// SampleSize сколько первых байт смотрит статистический детектор.
	SampleSize int
	// MaxReplacementRatio отбрасывает кандидата, если доля символов замены в
	// декодированном тексте выше этого порога. Ноль отключает проверку.
	MaxReplacementRatio float64
	Profile             LocaleProfile
}

// DefaultConfig возвращает настройки для тайских больничных выгрузок.
func DefaultConfig() Config {
	return Config{
		SampleSize:          100_000,
		MaxReplacementRatio: 0.05,
		Profile:             ThaiProfile,
	}
}

// Guess лучший ответ статистического детектора.
type Guess struct {
	Charset    string
	Confidence float64
}

// Detector выбирает кодировку файла и разбирает его.
type Detector struct {
	cfg    Config
	logger *slog.Logger
	text   *chardet.Detector
}

// New создает детектор. При nil logger используется slog.Default().
func New(cfg Config, logger *slog.Logger) *Detector {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultConfig().SampleSize
	}
	if cfg.Profile.Codepage == "" {
		cfg.Profile = ThaiProfile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, logger: logger, text: chardet.NewTextDetector()}
}

const asciiLabel = "ascii"

// Guess запускает статистический детектор на начальной выборке data.
func (d *Detector) Guess(data []byte) Guess {
	sample := data
	if len(sample) > d.cfg.SampleSize {
		sample = sample[:d.cfg.SampleSize]
	}
	if isASCII(sample) {
		return Guess{Charset: asciiLabel, Confidence: 1}
	}
	res, err := d.text.DetectBest(sample)
	if err != nil || res == nil {
		return Guess{}
	}
	return Guess{Charset: strings.ToLower(res.Charset), Confidence: float64(res.Confidence) / 100}
}

// Candidates упорядочивает кодировки для перебора: сама догадка, если это не
// ASCII и не известная коллизия, затем кодовая страница профиля, затем UTF-8.
func (d *Detector) Candidates(g Guess) []string {
	locale := canonical(d.cfg.Profile.Codepage)
	var out []string
	seen := make(map[string]bool)
	add := func(label string) {
		label = canonical(label)
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		out = append(out, label)
	}
	if g.Charset != "" && g.Charset != asciiLabel && !d.collides(g.Charset) {
		add(g.Charset)
	}
	add(locale)
	add("utf-8")
	return out
}

func (d *Detector) collides(label string) bool {
	label = canonical(label)
	for _, c := range d.cfg.Profile.Collisions {
		if canonical(c) == label {
			return true
		}
	}
	return false
}

// Charset возвращает первую кодировку-кандидата для выборки. Читатель книг
// использует ее для старых байтовых строк.
func (d *Detector) Charset(data []byte) string {
	return d.Candidates(d.Guess(data))[0]
}

// DetectFile читает path и вызывает Detect.
func (d *Detector) DetectFile(path string, delim Delimiter, skipRows int) (*table.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw, err := d.Detect(data, delim, skipRows)
	if err != nil {
		return nil, err
	}
	raw.Path = path
	return raw, nil
}

// Detect по очереди декодирует и разбирает data каждой кодировкой-кандидатом
// и возвращает первый успех. Если не подошла ни одна, ошибка объединяет
// причины всех кандидатов, частичного результата нет.
func (d *Detector) Detect(data []byte, delim Delimiter, skipRows int) (*table.Raw, error) {
	if delim == Native {
		return nil, ErrNativeNotDelimited
	}
	guess := d.Guess(data)
	candidates := d.Candidates(guess)
	d.logger.Debug("encoding candidates",
		"guess", guess.Charset,
		"confidence", guess.Confidence,
		"candidates", candidates,
	)

	var errs []error
	for _, label := range candidates {
		res, err := d.tryCandidate(data, label, delim, skipRows)
		if err != nil {
			d.logger.Debug("encoding candidate rejected", "encoding", label, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
			continue
		}
		confidence := guess.Confidence
		if canonical(guess.Charset) != label {
			confidence = 0
		}
		d.logger.Info("encoding selected",
			"encoding", label,
			"confidence", confidence,
			"guess", guess.Charset,
			"skipped_rows", res.Skipped,
		)
		return &table.Raw{
			Encoding:   label,
			Confidence: confidence,
			Columns:    res.Columns,
			Rows:       res.Rows,
			Skipped:    res.Skipped,
		}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrAllEncodingsFailed, errors.Join(errs...))
}

func (d *Detector) tryCandidate(data []byte, label string, delim Delimiter, skipRows int) (*ParseResult, error) {
	text, err := Decode(data, label)
	if err != nil {
		return nil, err
	}
	if ratio := replacementRatio(text); d.cfg.MaxReplacementRatio > 0 && ratio > d.cfg.MaxReplacementRatio {
		return nil, fmt.Errorf("%w: %.2f%%", ErrTooManyReplacement, ratio*100)
	}
	return ParseDelimited(text, delim.Rune(), skipRows)
}

// Decode переводит data из указанной кодировки в UTF-8. Недекодируемые байты
// становятся U+FFFD, начальный BOM отбрасывается.
func Decode(data []byte, label string) (string, error) {
	enc, err := Lookup(label)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode as %s: %w", label, err)
	}
	out = bytes.TrimPrefix(out, []byte("\uFEFF"))
	return string(out), nil
}

var aliases = map[string]string{
	"cp874":     "windows-874",
	"tis-620":   "windows-874",
	"tis620":    "windows-874",
	"x-cp874":   "windows-874",
	"utf8":      "utf-8",
	"cp1252":    "windows-1252",
	"sjis":      "shift_jis",
	"shift-jis": "shift_jis",
}

func canonical(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if a, ok := aliases[label]; ok {
		return a
	}
	return label
}

// Lookup находит кодировку по метке.
func Lookup(label string) (encoding.Encoding, error) {
	label = canonical(label)
	if label == "utf-8" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, label)
	}
	return enc, nil
}

func replacementRatio(s string) float64 {
	total, bad := 0, 0
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
