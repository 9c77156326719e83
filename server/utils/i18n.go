package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattermost/mattermost-server/v6/plugin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// Bundle holds the translations of the plugin. Services report failures as ErrorMessage values
// and the plugin renders them through a Bundle in the language of the user who sees them.
type Bundle struct {
	*i18n.Bundle
	api plugin.API
}

// InitBundle loads the active.*.json translations from path inside the plugin bundle.
// English is compiled in and never loaded from disk.
func InitBundle(api plugin.API, path string) (*Bundle, error) {
	b := &Bundle{
		Bundle: i18n.NewBundle(language.English),
		api:    api,
	}
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	bundlePath, err := b.api.GetBundlePath()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bundle path")
	}

	i18nDir := filepath.Join(bundlePath, path)
	files, err := os.ReadDir(i18nDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open i18n directory")
	}

	for _, file := range files {
		name := file.Name()
		if !strings.HasPrefix(name, "active.") || name == "active.en.json" {
			continue
		}
		if _, err = b.LoadMessageFile(filepath.Join(i18nDir, name)); err != nil {
			return nil, errors.Wrapf(err, "failed to load message file %s", name)
		}
	}

	return b, nil
}

// GetUserLocalizer returns a localizer for the locale of userID.
// It falls back to the server language if the user cannot be loaded.
func (b *Bundle) GetUserLocalizer(userID string) *i18n.Localizer {
	user, appErr := b.api.GetUser(userID)
	if appErr != nil {
		b.api.LogWarn("Failed to get user locale", "error", appErr.Error())
		return b.GetServerLocalizer()
	}

	return i18n.NewLocalizer(b.Bundle, user.Locale)
}

// GetServerLocalizer returns a localizer for the default client locale of the server.
// Text that a whole group reads, like poll announcements, uses it.
func (b *Bundle) GetServerLocalizer() *i18n.Localizer {
	return i18n.NewLocalizer(
		b.Bundle,
		*b.api.GetConfig().LocalizationSettings.DefaultClientLocale,
	)
}

// LocalizeDefaultMessage renders m without template data.
func (b *Bundle) LocalizeDefaultMessage(l *i18n.Localizer, m *i18n.Message) string {
	s, err := l.LocalizeMessage(m)
	if err != nil {
		b.api.LogWarn("Failed to localize message", "message ID", m.ID, "error", err.Error())
	}

	return s
}

// LocalizeWithConfig renders lc. Failures are logged and yield an empty string.
func (b *Bundle) LocalizeWithConfig(l *i18n.Localizer, lc *i18n.LocalizeConfig) string {
	s, err := l.Localize(lc)
	if err != nil {
		b.api.LogWarn("Failed to localize with config", "error", err.Error())
	}

	return s
}

// LocalizeErrorMessage renders the text of a service error.
// An error without a message is rendered with the generic text of its kind.
func (b *Bundle) LocalizeErrorMessage(l *i18n.Localizer, m *ErrorMessage) string {
	message := m.Message
	if message == nil {
		message = kindMessages[m.Kind]
	}

	return b.LocalizeWithConfig(l, &i18n.LocalizeConfig{
		DefaultMessage: message,
		TemplateData:   m.Data,
	})
}
