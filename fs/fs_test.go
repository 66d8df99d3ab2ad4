package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	emails, err := fs.Glob(FS, "assets/templates/email/*")
	require.NoError(t, err)
	// layouts start with "_" and are skipped by plain directory embeds
	assert.ElementsMatch(t, []string{
		"assets/templates/email/_base.gohtml",
		"assets/templates/email/_base.txt",
		"assets/templates/email/welcome.gohtml",
		"assets/templates/email/welcome.txt",
	}, emails)

	pages, err := fs.Glob(FS, "assets/templates/portal/*.gohtml")
	require.NoError(t, err)
	assert.Len(t, pages, 5)

	migrations, err := fs.Glob(FS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Len(t, migrations, 5)

	_, err = fs.Stat(FS, "assets/common-passwords.txt.gz")
	assert.NoError(t, err)
}
