package service

import (
	"fmt"
	"unicode/utf8"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/normalize"
)

// maxNameLength bounds tag and ingredient names, in characters.
const maxNameLength = 255

// cleanNames normalizes a list of tag or ingredient names for field and
// rejects blank or over-long entries.
func cleanNames(field string, names []string) ([]string, error) {
	out, hadBlank := normalize.Names(names)
	if hadBlank {
		return nil, domainerrors.FieldValidation(field, fmt.Sprintf("%s names may not be blank", field))
	}
	for _, name := range out {
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, domainerrors.FieldValidation(field,
				fmt.Sprintf("%s names must not exceed %d characters", field, maxNameLength))
		}
	}
	return out, nil
}

// cleanName normalizes a single name.
func cleanName(field, name string) (string, error) {
	out, err := cleanNames(field, []string{name})
	if err != nil {
		return "", err
	}
	return out[0], nil
}
