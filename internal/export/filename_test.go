package export

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var exportFilenamePattern = regexp.MustCompile(
	`^[A-Za-z0-9_.-]+__(IN_PROGRESS_ANALYST|ANALYST_DONE|VERIFIER_DONE|ADMIN_FINAL|REJECTED)__\d{4}-\d{2}-\d{2}_\d{2}-\d{2}__[A-Za-z0-9_.-]+\.xlsx$`)

type FilenameSuite struct {
	suite.Suite
	now time.Time
}

func (s *FilenameSuite) SetupTest() {
	s.now = time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC)
}

func TestFilenameSuite(t *testing.T) {
	suite.Run(t, new(FilenameSuite))
}

func (s *FilenameSuite) TestCanonicalFilename() {
	got := BuildExportFilename("batch_001", "verifier done", "ws_demo", s.now)
	s.Equal("batch_001__VERIFIER_DONE__2026-02-18_16-45__ws_demo.xlsx", got)
}

func (s *FilenameSuite) TestFilenameShape() {
	cases := []struct {
		batch  string
		status string
		ws     string
	}{
		{"Batch 001", "in progress", "ws_demo"},
		{"contracts-2026.xlsx", "approved", "ws demo!"},
		{"", "", ""},
		{"///", "rejected", "___"},
	}
	for _, tc := range cases {
		s.Run(tc.batch+"/"+tc.status, func() {
			got := BuildExportFilename(tc.batch, tc.status, tc.ws, s.now)
			s.Regexp(exportFilenamePattern, got)
		})
	}
}

func (s *FilenameSuite) TestSanitization() {
	s.Run("spaces become underscores", func() {
		got := BuildExportFilename("Batch 001", "in progress", "ws_demo", s.now)
		s.Equal("Batch_001__IN_PROGRESS_ANALYST__2026-02-18_16-45__ws_demo.xlsx", got)
	})

	s.Run("spreadsheet extensions are stripped from parts", func() {
		got := BuildExportFilename("batch_001.XLSX", "final", "ws_demo", s.now)
		s.True(strings.HasPrefix(got, "batch_001__"), got)
	})

	s.Run("empty parts fall back to placeholders", func() {
		got := BuildExportFilename("", "", "", s.now)
		s.Equal("dataset__IN_PROGRESS_ANALYST__2026-02-18_16-45__workspace.xlsx", got)
	})

	s.Run("long parts are capped", func() {
		long := strings.Repeat("a", 200)
		got := BuildExportFilename(long, "final", "ws_demo", s.now)
		parts := strings.Split(got, "__")
		s.LessOrEqual(len(parts[0]), 64)
	})

	s.Run("timestamp is rendered in UTC", func() {
		local := time.Date(2026, 2, 18, 11, 45, 0, 0, time.FixedZone("EST", -5*3600))
		got := BuildExportFilename("batch_001", "verifier done", "ws_demo", local)
		s.Contains(got, "2026-02-18_16-45")
	})
}
