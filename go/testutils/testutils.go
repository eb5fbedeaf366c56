// Package testutils contains convenience utilities for testing.
package testutils

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	assert "github.com/stretchr/testify/require"

	"go.skia.org/figtest/go/sktest"
)

// AssertDeepEqual fails the test if the two objects do not pass
// reflect.DeepEqual.
func AssertDeepEqual(t sktest.TestingT, expected, actual interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		assert.FailNow(t, fmt.Sprintf("Objects do not match: \na:\n%s\n\nb:\n%s\n", spew.Sprint(expected), spew.Sprint(actual)))
	}
}
