package domain

import (
	"context"
	"fmt"
	"log/slog"

	m "unpin.dev/pkg/unpin/internal/model"
)

// NetworkConfigPath is where the config is written, relative to the decompiled root.
var NetworkConfigPath = []string{"res", "xml", "nsc_mitm.xml"}

// networkSecurityConfig trusts user-installed CAs and overrides declared pins.
const networkSecurityConfig = `<?xml version="1.0" encoding="utf-8"?>
<network-security-config>
    <base-config cleartextTrafficPermitted="true">
        <trust-anchors>
            <certificates src="system" />
            <certificates src="user" overridePins="true" />
        </trust-anchors>
    </base-config>
</network-security-config>
`

// WriteNetworkConfig writes the permissive network security config below args.Root.
func (w *workflowPipeline) WriteNetworkConfig(ctx context.Context, args NetworkConfigArgs) (m.Path, error) {
	if err := w.checkRoot(ctx, args.Root); err != nil {
		return "", err
	}

	target := w.JoinPath(append([]string{string(args.Root)}, NetworkConfigPath...)...)

	if _, err := w.FileInfo(ctx, target); err == nil && !args.Force {
		return target, fmt.Errorf("%w: %s", ErrNetworkConfigExists, target)
	}

	if err := w.WriteFile(ctx, target, []byte(networkSecurityConfig)); err != nil {
		slog.Error("Failed to write network security config", "path", target, "error", err)
		return target, fmt.Errorf("write network security config: %w", err)
	}

	slog.Info("Wrote network security config", "path", target)

	return target, nil
}
