package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"unpin.dev/pkg/unpin/internal/domain"
)

// newTestRoot builds a fresh command tree so viper keys bind to unchanged
// flags, and sends the log file to a temp dir.
func newTestRoot(t *testing.T, subcommands ...*cobra.Command) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(newPatchCmd())
	cmd.AddCommand(subcommands...)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.PersistentFlags().Set(logFileFlagName, filepath.Join(t.TempDir(), "unpin.log")))

	return cmd, out
}

// useWorkflow swaps the package workflow for the duration of the test.
func useWorkflow(t *testing.T, wf domain.Workflow) {
	t.Helper()

	originalWorkflow := workflow
	workflow = wf

	t.Cleanup(func() { workflow = originalWorkflow })
}

const trustManagerSmali = `.class public Lcom/example/net/TrustAll;
.super Ljava/lang/Object;
.implements Ljavax/net/ssl/X509TrustManager;

.method public checkServerTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V
    .locals 1

    new-instance v0, Ljava/security/cert/CertificateException;

    invoke-direct {v0}, Ljava/security/cert/CertificateException;-><init>()V

    throw v0
.end method
`

// decompiledTree writes a minimal apktool output directory.
func decompiledTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "smali_classes2", "com", "example", "net")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TrustAll.smali"), []byte(trustManagerSmali), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "res", "values"), 0o755))

	return root
}
