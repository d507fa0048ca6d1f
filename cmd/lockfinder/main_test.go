package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trace = `time=2024-03-04T10:29:30.000-05:00 level=DEBUG msg=created mutex=runner site=""
time=2024-03-04T10:29:30.001-05:00 level=DEBUG msg="seeks lock" mutex=runner site=Reload
time=2024-03-04T10:29:30.002-05:00 level=DEBUG msg="receives lock" mutex=runner site=Reload
time=2024-03-04T10:29:30.003-05:00 level=DEBUG msg="releases lock" mutex=runner site=Reload
time=2024-03-04T10:29:30.004-05:00 level=DEBUG msg="seeks lock" mutex=printer site=Write:@taskopy
time=2024-03-04T10:29:30.005-05:00 level=DEBUG msg="receives lock" mutex=printer site=Write:@taskopy
time=2024-03-04T10:29:30.006-05:00 level=INFO msg="loaded tasks" count=3 warnings=0
time=2024-03-04T10:29:30.007-05:00 level=DEBUG msg="seeks lock" mutex=runner site=Status
time=2024-03-04T10:29:30.008-05:00 level=DEBUG msg="seeks lock" mutex=tui site="Writer tick"
time=2024-03-04T10:29:30.009-05:00 level=DEBUG msg="receives lock" mutex=tui site="Writer tick"
`

func TestReport(t *testing.T) {
	l, err := scan(strings.NewReader(trace))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"runner": "", "printer": "Write:@taskopy", "tui": "Writer tick"}, l.holders)
	assert.Equal(t, "report\n- printer is held by Write:@taskopy\n- tui is held by Writer tick\n- runner is not held\n", l.report())
}
