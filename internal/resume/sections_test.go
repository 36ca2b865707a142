package resume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionsOrderAndFormatting(t *testing.T) {
	r, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	sections := Sections(r)
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	require.Equal(t, []string{"Profile", "Education", "Experience", "Skills", "Projects", "Certificates"}, titles)

	require.Equal(t, Block{Kind: KindEntry, Text: "BSc Computer Science, State University (2018)"}, sections[1].Blocks[0])
	require.Equal(t, []Block{
		{Kind: KindEntryHeader, Text: "Software Engineer - Acme (2019 - 2024)"},
		{Kind: KindBullet, Text: "Built the billing API"},
		{Kind: KindBullet, Text: "Cut p99 latency by 40%"},
	}, sections[2].Blocks)

	require.True(t, sections[3].Inline)
	require.Equal(t, "Go, PostgreSQL, Kubernetes", sections[3].InlineText())
	require.Equal(t, "ratelimit: Sharded fixed-window limiter", sections[4].Blocks[0].Text)
}

func TestSectionsSkipsEmpty(t *testing.T) {
	sections := Sections(&Resume{Skills: []string{"Go"}})
	require.Len(t, sections, 1)
	require.Equal(t, "Skills", sections[0].Title)

	require.Empty(t, Sections(&Resume{}))
	require.Nil(t, Sections(nil))
}

func TestContactLines(t *testing.T) {
	info := PersonalInfo{
		Email:    "ada@example.com",
		Phone:    "555-0100",
		Location: "London",
		LinkedIn: "linkedin.com/in/ada",
		GitHub:   "github.com/ada",
	}
	require.Equal(t, []string{
		"ada@example.com | 555-0100 | London",
		"linkedin.com/in/ada | github.com/ada",
	}, ContactLines(info))

	require.Equal(t, []string{"ada@example.com"}, ContactLines(PersonalInfo{Email: "ada@example.com"}))
	require.Empty(t, ContactLines(PersonalInfo{}))
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Your Name", DisplayName(PersonalInfo{}))
	require.Equal(t, "Ada Lovelace", DisplayName(PersonalInfo{Name: " Ada Lovelace "}))
}

func TestFilename(t *testing.T) {
	require.Equal(t, "Resume.pdf", Filename(PersonalInfo{}, "pdf"))
	require.Equal(t, "Ada Lovelace.docx", Filename(PersonalInfo{Name: "Ada Lovelace"}, ".docx"))
	require.Equal(t, "etcpasswd.pdf", Filename(PersonalInfo{Name: "../etc/passwd"}, "pdf"))
	require.Equal(t, "AB.pdf", Filename(PersonalInfo{Name: "A\"\nB"}, "pdf"))
	require.Equal(t, "Resume", Filename(PersonalInfo{}, ""))
}
