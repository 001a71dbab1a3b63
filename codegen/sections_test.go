package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeOrdersSections(t *testing.T) {
	g := NewGlobalDataSections()
	g.WriteText("global main\n")
	g.WriteRodata("L_double_0: dq 1\n")
	g.WriteData("G_x: dq 0\n")
	g.WriteBss("buf: resb 8\n")

	base := filepath.Join(t.TempDir(), "out")
	require.NoError(t, g.Finalize(base))

	content, err := os.ReadFile(base + ".s")
	require.NoError(t, err)
	out := string(content)

	textIdx := strings.Index(out, "section .text")
	rodataIdx := strings.Index(out, "section .rodata")
	dataIdx := strings.Index(out, "section .data")
	bssIdx := strings.Index(out, "section .bss")

	require.NotEqual(t, -1, textIdx, "missing .text header in:\n%s", out)
	require.NotEqual(t, -1, rodataIdx, "missing .rodata header in:\n%s", out)
	require.NotEqual(t, -1, dataIdx, "missing .data header in:\n%s", out)
	require.NotEqual(t, -1, bssIdx, "missing .bss header in:\n%s", out)

	assert.True(t, textIdx < rodataIdx && rodataIdx < dataIdx && dataIdx < bssIdx, "sections out of order:\n%s", out)
}

func TestFinalizeOmitsEmptySections(t *testing.T) {
	g := NewGlobalDataSections()
	g.WriteText("global main\n")

	base := filepath.Join(t.TempDir(), "out")
	require.NoError(t, g.Finalize(base))

	content, err := os.ReadFile(base + ".s")
	require.NoError(t, err)
	out := string(content)

	for _, section := range []string{"rodata", "data", "bss"} {
		assert.NotContains(t, out, "section ."+section, "expected no .%s header for an empty buffer", section)
	}
}

func TestFuncBufferPrecedesTextBuffer(t *testing.T) {
	g := NewGlobalDataSections()
	g.WriteText("global main\n")

	require.NoError(t, g.EnterFunction())
	g.WriteText("user_func_f:\nret\n")
	g.ExitFunction()

	g.WriteText("main:\nret\n")

	base := filepath.Join(t.TempDir(), "out")
	require.NoError(t, g.Finalize(base))
	content, err := os.ReadFile(base + ".s")
	require.NoError(t, err)
	out := string(content)

	funcIdx := strings.Index(out, "user_func_f:")
	mainIdx := strings.Index(out, "main:")
	require.NotEqual(t, -1, funcIdx)
	require.NotEqual(t, -1, mainIdx)
	assert.Less(t, funcIdx, mainIdx, "expected func buffer content before main")
}

func TestNestedEnterFunctionRejected(t *testing.T) {
	g := NewGlobalDataSections()
	require.NoError(t, g.EnterFunction())
	assert.Error(t, g.EnterFunction(), "expected an error on a nested EnterFunction")
}

func TestExitFunctionAllowsReentry(t *testing.T) {
	g := NewGlobalDataSections()
	require.NoError(t, g.EnterFunction())
	g.ExitFunction()
	assert.NoError(t, g.EnterFunction(), "expected EnterFunction to succeed again after ExitFunction")
}
