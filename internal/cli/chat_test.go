package cli_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fitcoach"
	"github.com/aretw0/fitcoach/internal/cli"
	"github.com/aretw0/fitcoach/internal/config"
	"github.com/aretw0/fitcoach/pkg/adapters/llm"
)

func newApp(t *testing.T) *fitcoach.App {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Kind = config.StoreMemory
	cfg.Providers = []llm.Config{{Provider: llm.ProviderStatic}}
	app, err := fitcoach.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestRunChat_JSON(t *testing.T) {
	app := newApp(t)
	in := strings.NewReader("\"/start\"\n{\"value\":\"strength\",\"state\":\"goal\"}\n")
	var out bytes.Buffer

	err := cli.RunChat(context.Background(), app, cli.ChatOptions{Subject: "zoe", JSON: true, In: in, Out: &out})
	require.NoError(t, err)

	var kinds []string
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var msg struct {
			Instruction *struct {
				Kind  string `json:"kind"`
				State string `json:"state"`
			} `json:"instruction"`
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &msg))
		if msg.Instruction != nil {
			kinds = append(kinds, msg.Instruction.Kind+":"+msg.Instruction.State)
		}
	}
	assert.Equal(t, []string{"prompt_for:goal", "prompt_for:experience"}, kinds)
}

func TestRunChat_PlainText(t *testing.T) {
	app := newApp(t)
	var out bytes.Buffer

	err := cli.RunChat(context.Background(), app, cli.ChatOptions{Subject: "yan", In: strings.NewReader("/help\n"), Out: &out})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "talking as")
	assert.Contains(t, out.String(), "/myworkoutplan")
}

func TestRunChat_RequiresSubject(t *testing.T) {
	err := cli.RunChat(context.Background(), newApp(t), cli.ChatOptions{})
	assert.Error(t, err)
}
