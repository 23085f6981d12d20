// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n

import (
	"context"
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// Supported lists the available languages. The first one is the fallback
// when Init gets no default.
var Supported = []language.Tag{
	language.Spanish,
	language.English,
}

var (
	bundle        *i18n.Bundle
	defaultLocale language.Tag
	available     []language.Tag
	matcher       language.Matcher
)

func init() {
	if err := Init(""); err != nil {
		panic(err)
	}
}

type localeContextKey struct{}
type localizerContextKey struct{}

// Init initializes the i18n bundle with embedded translations. defaultLang
// is used for requests without a matching Accept-Language; empty means
// Spanish.
func Init(defaultLang string) error {
	def := Supported[0]
	if defaultLang != "" {
		tag, err := language.Parse(defaultLang)
		if err != nil {
			return fmt.Errorf("invalid default locale %q: %w", defaultLang, err)
		}
		def = tag
	}

	b := i18n.NewBundle(def)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files := []string{
		"translations/active.es.toml",
		"translations/active.en.toml",
	}

	for _, file := range files {
		if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
			return err
		}
	}

	// The default goes first so it wins when nothing matches.
	tags := []language.Tag{def}
	for _, tag := range Supported {
		if tag != def {
			tags = append(tags, tag)
		}
	}

	bundle = b
	defaultLocale = def
	available = tags
	matcher = language.NewMatcher(tags)
	return nil
}

// WithLocale adds the locale to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	locale := lang.String()
	ctx = context.WithValue(ctx, localeContextKey{}, locale)
	localizer := i18n.NewLocalizer(bundle, locale)
	return context.WithValue(ctx, localizerContextKey{}, localizer)
}

// GetLocale returns the current locale from context.
func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(localeContextKey{}).(string); ok {
		return locale
	}
	return defaultLocale.String()
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return TData(ctx, messageID, nil)
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// MatchLanguage matches the best language from Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	_, idx, _ := matcher.Match(tags...)
	return available[idx]
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(bundle, defaultLocale.String())
}
