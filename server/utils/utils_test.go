package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonightapp/tonight/server/utils"
)

func TestParseInput(t *testing.T) {
	for name, test := range map[string]struct {
		Input          string
		Trigger        string
		ExpectedFields []string
	}{
		"Normal test": {
			Input:          `/tonight poll "A" "B" "C"`,
			Trigger:        "tonight",
			ExpectedFields: []string{"poll", "A", "B", "C"},
		},
		"Quoted words stay together": {
			Input:          `/tonight vote "Bloomington" "The Bluebird"`,
			Trigger:        "tonight",
			ExpectedFields: []string{"vote", "Bloomington", "The Bluebird"},
		},
		"With quotationmark in option": {
			Input:          `/tonight poll "AAA" "\"BBB" "CCC"`,
			Trigger:        "tonight",
			ExpectedFields: []string{"poll", "AAA", `"BBB`, "CCC"},
		},
		"Escaped backslash": {
			Input:          `/tonight poll "A\\B"`,
			Trigger:        "tonight",
			ExpectedFields: []string{"poll", `A\B`},
		},
		"Trim whitespace": {
			Input:          `/tonight   where  "Bloomington"  `,
			Trigger:        "tonight",
			ExpectedFields: []string{"where", "Bloomington"},
		},
		"Replace curlyquotes": {
			Input:          `/tonight vote “Bloomington” “Bluebird”`,
			Trigger:        "tonight",
			ExpectedFields: []string{"vote", "Bloomington", "Bluebird"},
		},
		"Empty quotes are dropped": {
			Input:          `/tonight poll "Q" "" "B"`,
			Trigger:        "tonight",
			ExpectedFields: []string{"poll", "Q", "B"},
		},
		"No arguments": {
			Input:          `/tonight  `,
			Trigger:        "tonight",
			ExpectedFields: []string{},
		},
		"Other trigger": {
			Input:          `/out help`,
			Trigger:        "out",
			ExpectedFields: []string{"help"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.ExpectedFields, utils.ParseInput(test.Input, test.Trigger))
		})
	}
}
