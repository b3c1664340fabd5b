package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "unpin.dev/pkg/unpin/internal/model"
)

const (
	clientHeader = ".method public checkClientTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V"
	serverHeader = ".method public checkServerTrusted([Ljava/security/cert/X509Certificate;Ljava/lang/String;)V"
	issuerHeader = ".method public final getAcceptedIssuers()[Ljava/security/cert/X509Certificate;"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return string(data)
}

// methodBlock returns the lines from the header starting with prefix up to
// and including its terminator.
func methodBlock(t *testing.T, content, prefix string) []string {
	t.Helper()

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}

		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == methodEnd {
				return lines[i : j+1]
			}
		}
	}

	t.Fatalf("method %q not found", prefix)

	return nil
}

func TestPatcher_Patch_TrustManager(t *testing.T) {
	content := readFixture(t, "PinningTrustManager.smali")

	result := NewPatcher().Patch(content)

	require.True(t, result.Changed)
	assert.Equal(t, DefaultSignatures, result.Methods)

	client := methodBlock(t, result.Content, clientHeader)
	assert.Equal(t, []string{
		clientHeader,
		"    " + insertedMarker,
		"    .locals 0",
		"    return-void",
		"",
		"    " + disabledMarker,
	}, client[:6])
	assert.Equal(t, methodEnd, client[len(client)-1])

	issuers := methodBlock(t, result.Content, issuerHeader)
	assert.Equal(t, []string{
		issuerHeader,
		"    " + insertedMarker,
		"    .locals 1",
		"    const/4 v0, 0x0",
		"    new-array v0, v0, [Ljava/security/cert/X509Certificate;",
		"    return-object v0",
		"",
		"    " + disabledMarker,
	}, issuers[:8])

	server := methodBlock(t, result.Content, serverHeader)
	assert.Contains(t, server, "    #     :goto_0")
	assert.Contains(t, server, "    #     goto :goto_0")
}

func TestPatcher_Patch_PreservesBody(t *testing.T) {
	content := readFixture(t, "PinningTrustManager.smali")
	original := methodBlock(t, content, serverHeader)

	result := NewPatcher().Patch(content)
	require.True(t, result.Changed)

	patched := methodBlock(t, result.Content, serverHeader)
	body := original[1 : len(original)-1]

	start := len(patched) - 1 - len(body)
	require.Equal(t, "    "+disabledMarker, patched[start-1])

	for i, line := range body {
		want := strings.TrimRight("    # "+line, " \t")
		assert.Equal(t, want, patched[start+i], "body line %d", i)
	}
}

func TestPatcher_Patch_LeavesOtherCodeUntouched(t *testing.T) {
	content := readFixture(t, "PinningTrustManager.smali")

	result := NewPatcher().Patch(content)
	require.True(t, result.Changed)

	for _, prefix := range []string{
		".method public constructor <init>",
		".method private static sha256",
	} {
		before := methodBlock(t, content, prefix)
		after := methodBlock(t, result.Content, prefix)

		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("%s changed (-before +after):\n%s", prefix, diff)
		}
	}

	header := strings.Split(content, "\n# virtual methods")[0]
	assert.True(t, strings.HasPrefix(result.Content, header))
}

func TestPatcher_Patch_Idempotent(t *testing.T) {
	patcher := NewPatcher()

	first := patcher.Patch(readFixture(t, "PinningTrustManager.smali"))
	require.True(t, first.Changed)

	second := patcher.Patch(first.Content)

	assert.False(t, second.Changed)
	assert.Empty(t, second.Methods)
	assert.Equal(t, first.Content, second.Content)
	assert.Empty(t, patcher.Inspect(first.Content))
}

func TestPatcher_Patch_NoTargets(t *testing.T) {
	content := readFixture(t, "Plain.smali")

	result := NewPatcher().Patch(content)

	assert.False(t, result.Changed)
	assert.Equal(t, content, result.Content)
	assert.Empty(t, result.Methods)
}

func TestPatcher_Patch_PartialImplementation(t *testing.T) {
	content := readFixture(t, "ServerOnlyTrustManager.smali")

	result := NewPatcher().Patch(content)

	require.True(t, result.Changed)
	require.Len(t, result.Methods, 1)
	assert.Equal(t, "checkServerTrusted", result.Methods[0].Name)

	patched := methodBlock(t, result.Content, serverHeader)
	assert.Contains(t, patched, "    #     .end local v0    # \"leaf\":Ljava/security/cert/X509Certificate;")

	before := methodBlock(t, content, ".method protected leafOf")
	after := methodBlock(t, result.Content, ".method protected leafOf")
	assert.Equal(t, before, after)
}

func TestPatcher_Patch_ClientTrustedScenario(t *testing.T) {
	body := []string{
		"    .locals 2",
		"",
		"    if-eqz p1, :cond_0",
		"",
		"    array-length v0, p1",
		"",
		"    if-lez v0, :cond_0",
		"",
		"    return-void",
		"",
		"    :cond_0",
		"    throw v1",
	}
	require.Len(t, body, 12)

	lines := append([]string{".class public La/b;", TrustManagerInterface, "", clientHeader}, body...)
	lines = append(lines, methodEnd, "")
	content := strings.Join(lines, "\n")

	result := NewPatcher().Patch(content)
	require.True(t, result.Changed)

	got := strings.Split(result.Content, "\n")
	assert.Len(t, got, len(lines)+5)

	want := []string{
		clientHeader,
		"    " + insertedMarker,
		"    .locals 0",
		"    return-void",
		"",
		"    " + disabledMarker,
		"    #     .locals 2",
		"    #",
		"    #     if-eqz p1, :cond_0",
		"    #",
		"    #     array-length v0, p1",
		"    #",
		"    #     if-lez v0, :cond_0",
		"    #",
		"    #     return-void",
		"    #",
		"    #     :cond_0",
		"    #     throw v1",
		methodEnd,
	}

	if diff := cmp.Diff(want, methodBlock(t, result.Content, clientHeader)); diff != "" {
		t.Errorf("patched block mismatch (-want +got):\n%s", diff)
	}
}

func TestPatcher_Patch_HeaderVariants(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		changed bool
	}{
		{name: "plain", header: ".method public getAcceptedIssuers()[Ljava/security/cert/X509Certificate;", changed: true},
		{name: "final", header: ".method public final getAcceptedIssuers()[Ljava/security/cert/X509Certificate;", changed: true},
		{name: "trailing whitespace", header: ".method public getAcceptedIssuers()[Ljava/security/cert/X509Certificate; \t", changed: true},
		{name: "synthetic bridge", header: ".method public synthetic getAcceptedIssuers()[Ljava/security/cert/X509Certificate;"},
		{name: "private", header: ".method private getAcceptedIssuers()[Ljava/security/cert/X509Certificate;"},
		{name: "other descriptor", header: ".method public getAcceptedIssuers()[Ljava/lang/Object;"},
		{name: "indented", header: "  .method public getAcceptedIssuers()[Ljava/security/cert/X509Certificate;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Join([]string{
				TrustManagerInterface,
				tt.header,
				"    .locals 1",
				"    const/4 v0, 0x0",
				"    return-object v0",
				methodEnd,
			}, "\n")

			result := NewPatcher().Patch(content)

			assert.Equal(t, tt.changed, result.Changed)

			if tt.changed {
				assert.Equal(t, strings.TrimRight(tt.header, " \t"), strings.Split(result.Content, "\n")[1])
			} else {
				assert.Equal(t, content, result.Content)
			}
		})
	}
}

func TestPatcher_Patch_MalformedMethods(t *testing.T) {
	t.Run("missing terminator", func(t *testing.T) {
		content := strings.Join([]string{
			TrustManagerInterface,
			serverHeader,
			"    .locals 0",
			"    return-void",
		}, "\n")

		result := NewPatcher().Patch(content)

		assert.False(t, result.Changed)
		assert.Equal(t, content, result.Content)
	})

	t.Run("next method starts before terminator", func(t *testing.T) {
		content := strings.Join([]string{
			TrustManagerInterface,
			clientHeader,
			"    .locals 0",
			serverHeader,
			"    .locals 0",
			"    throw v0",
			methodEnd,
		}, "\n")

		result := NewPatcher().Patch(content)
		require.True(t, result.Changed)
		require.Len(t, result.Methods, 1)
		assert.Equal(t, "checkServerTrusted", result.Methods[0].Name)

		lines := strings.Split(result.Content, "\n")
		assert.Equal(t, []string{TrustManagerInterface, clientHeader, "    .locals 0", serverHeader, "    " + insertedMarker}, lines[:5])
	})

	t.Run("nested end markers in body", func(t *testing.T) {
		content := strings.Join([]string{
			TrustManagerInterface,
			serverHeader,
			"    .locals 1",
			"    const-string v0, \".end method\"",
			"    .packed-switch 0x0",
			"        :pswitch_0",
			"    .end packed-switch",
			"    .annotation runtime Lkotlin/Deprecated;",
			"    .end annotation",
			"    return-void",
			methodEnd,
			"",
		}, "\n")

		result := NewPatcher().Patch(content)
		require.True(t, result.Changed)

		block := methodBlock(t, result.Content, serverHeader)
		assert.Equal(t, "    #     const-string v0, \".end method\"", block[7])
		assert.Equal(t, "    #     .end annotation", block[len(block)-3])
		assert.Equal(t, methodEnd, block[len(block)-1])
	})
}

func TestPatcher_Patch_LineEndings(t *testing.T) {
	lf := readFixture(t, "PinningTrustManager.smali")
	crlf := strings.ReplaceAll(lf, "\n", "\r\n")

	t.Run("auto keeps CRLF", func(t *testing.T) {
		result := NewPatcher().Patch(crlf)
		require.True(t, result.Changed)

		assert.Equal(t, strings.Count(result.Content, "\n"), strings.Count(result.Content, "\r\n"))

		expected := NewPatcher().Patch(lf)
		assert.Equal(t, strings.ReplaceAll(expected.Content, "\n", "\r\n"), result.Content)
	})

	t.Run("auto keeps LF", func(t *testing.T) {
		result := NewPatcher(WithLineEnding(m.LineEndingAuto)).Patch(lf)
		require.True(t, result.Changed)
		assert.NotContains(t, result.Content, "\r")
	})

	t.Run("forced CRLF on LF content", func(t *testing.T) {
		result := NewPatcher(WithLineEnding(m.LineEndingCRLF)).Patch(lf)
		require.True(t, result.Changed)
		assert.Equal(t, strings.Count(result.Content, "\n"), strings.Count(result.Content, "\r\n"))
	})

	t.Run("auto keeps mixed endings per line", func(t *testing.T) {
		head := ".class public LA;\r\n" + TrustManagerInterface + "\n.field x\n"
		method := serverHeader + "\r\n    .registers 3\r\n    return-void\r\n.end method\r\n"

		result := NewPatcher().Patch(head + method)
		require.True(t, result.Changed)

		patched, ok := strings.CutPrefix(result.Content, head)
		require.True(t, ok, "lines outside the method must keep their endings")
		assert.Equal(t, strings.Count(patched, "\n"), strings.Count(patched, "\r\n"))
		assert.Contains(t, patched, "    #     return-void\r\n.end method\r\n")

		expected := NewPatcher().Patch(strings.ReplaceAll(head+method, "\r\n", "\n"))
		assert.Equal(t, expected.Content, strings.ReplaceAll(result.Content, "\r\n", "\n"))
	})

	t.Run("LF leaves CRLF content unmatched", func(t *testing.T) {
		result := NewPatcher(WithLineEnding(m.LineEndingLF)).Patch(crlf)
		assert.False(t, result.Changed)
		assert.Equal(t, crlf, result.Content)
	})
}

func TestPatcher_WithSignatures(t *testing.T) {
	content := readFixture(t, "PinningTrustManager.smali")

	t.Run("subset", func(t *testing.T) {
		result := NewPatcher(WithSignatures(DefaultSignatures[2])).Patch(content)
		require.True(t, result.Changed)
		assert.Equal(t, []m.MethodSignature{DefaultSignatures[2]}, result.Methods)

		before := methodBlock(t, content, clientHeader)
		after := methodBlock(t, result.Content, clientHeader)
		assert.Equal(t, before, after)
	})

	t.Run("unknown policy is skipped", func(t *testing.T) {
		unknown := DefaultSignatures[1]
		unknown.Policy = m.ReplacementPolicy(42)

		result := NewPatcher(WithSignatures(unknown)).Patch(content)
		assert.False(t, result.Changed)
		assert.Equal(t, content, result.Content)
	})
}

func TestPatcher_Inspect(t *testing.T) {
	patcher := NewPatcher()

	assert.Equal(t, DefaultSignatures, patcher.Inspect(readFixture(t, "PinningTrustManager.smali")))
	assert.Empty(t, patcher.Inspect(readFixture(t, "Plain.smali")))

	found := patcher.Inspect(readFixture(t, "ServerOnlyTrustManager.smali"))
	require.Len(t, found, 1)
	assert.Equal(t, "checkServerTrusted", found[0].Name)
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, IsCandidate(readFixture(t, "PinningTrustManager.smali")))
	assert.False(t, IsCandidate(readFixture(t, "Plain.smali")))
	assert.False(t, IsCandidate(".implements Ljavax/net/ssl/X509ExtendedTrustManager;"))
	assert.False(t, IsCandidate(""))
}

func TestDiffCode(t *testing.T) {
	diff, err := diffCode("smali/a/B.smali", "a\nb\nc\n", "a\nx\nc\n")
	require.NoError(t, err)

	assert.Contains(t, diff, "--- a/smali/a/B.smali")
	assert.Contains(t, diff, "+++ b/smali/a/B.smali")
	assert.Contains(t, diff, "-b\n")
	assert.Contains(t, diff, "+x\n")

	same, err := diffCode("x", "a\n", "a\n")
	require.NoError(t, err)
	assert.Empty(t, same)
}
