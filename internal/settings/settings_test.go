package settings

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{"BinDir":"/opt/cmon/bin","AWS":{"Accounts":{"222":{"us-west-2":0.5,"eu-west-1":1},"111":{"us-east-1":1}},"Profiles":{"222":"prod"},"TagRules":{"111":"strict"},"CUR":{"Bucket":"cur","Label":"hourly"}},"TagRules":{"strict":{"Include":["env"]}},"Slack":{"Webhooks":{"default":"https://hooks.example/x"}}}`

func TestLoadFromStdinLeavesRecords(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(doc + "\n[\"a\"]\n[\"b\"]\n"))

	s, err := Load(in, StdinSource)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cmon/bin", s.BinDir)
	assert.Equal(t, "cur", s.AWS.CUR.Bucket)
	assert.Equal(t, "https://hooks.example/x", s.Slack.Webhooks["default"])
	assert.Nil(t, s.K8s)

	rest, err := in.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "[\"a\"]\n", rest)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(bufio.NewReader(strings.NewReader("")), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, s.AWS.SortedAccounts())
	assert.Equal(t, []string{"eu-west-1", "us-west-2"}, s.AWS.SortedRegions("222"))
	assert.Equal(t, "prod", s.AWS.Profile("222"))
	assert.Equal(t, "111", s.AWS.Profile("111"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(bufio.NewReader(strings.NewReader("")), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Load(bufio.NewReader(strings.NewReader("")), StdinSource)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(bufio.NewReader(strings.NewReader("  \n{}\n")), StdinSource)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(bufio.NewReader(strings.NewReader("{not json\n")), StdinSource)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTagsUsesAccountSelectors(t *testing.T) {
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	set := s.Tags()
	assert.NotNil(t, set.For("111"))
	assert.NotNil(t, set.For("999"))
}
