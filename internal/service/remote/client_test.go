package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-channels/internal/domain/release"
)

const testEndpointPath = "/update/testnew/demo/{{target}}-{{arch}}/{{current_version}}"

// testPlatform pins the platform so request paths are deterministic.
var testPlatform = Platform{Target: "linux", Arch: "x86_64"} //nolint:gochecknoglobals // Test fixture.

// updateHost is a fake update host serving one manifest and one artifact.
type updateHost struct {
	*httptest.Server

	mu          sync.Mutex
	status      int
	manifest    any
	artifact    []byte
	checkedPath string
	query       string
	userAgent   string
	downloads   int
}

func newUpdateHost(t *testing.T) *updateHost {
	t.Helper()

	h := &updateHost{status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/update/", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.checkedPath = r.URL.Path
		h.query = r.URL.RawQuery
		h.userAgent = r.Header.Get("User-Agent")

		if h.status != http.StatusOK {
			w.WriteHeader(h.status)
			return
		}

		switch m := h.manifest.(type) {
		case string:
			_, _ = w.Write([]byte(m))
		default:
			_ = json.NewEncoder(w).Encode(m)
		}
	})
	mux.HandleFunc("/artifacts/app", func(w http.ResponseWriter, _ *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.downloads++
		_, _ = w.Write(h.artifact)
	})

	h.Server = httptest.NewServer(mux)
	t.Cleanup(h.Close)

	return h
}

// set replaces the reply served for check requests.
func (h *updateHost) set(status int, manifest any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.status = status
	h.manifest = manifest
}

// setArtifact replaces the artifact body.
func (h *updateHost) setArtifact(artifact []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.artifact = artifact
}

// lastRequest returns what the host saw on the latest check request.
func (h *updateHost) lastRequest() (path, query, userAgent string, downloads int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.checkedPath, h.query, h.userAgent, h.downloads
}

func (h *updateHost) endpoint(query string) string {
	return h.URL + testEndpointPath + query
}

func (h *updateHost) artifactURL() string {
	return h.URL + "/artifacts/app"
}

func newTestClient(opts ...Option) *Client {
	return New(append([]Option{WithPlatform(testPlatform), WithCurrentVersion("1.0.0")}, opts...)...)
}

// TestClient_Check_NoContent verifies a 204 reply means no update.
func TestClient_Check_NoContent(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)
	host.set(http.StatusNoContent, nil)

	update, err := newTestClient().Check(context.Background(), host.endpoint("?channel=beta"))
	require.NoError(t, err)
	require.Nil(t, update)

	path, query, userAgent, _ := host.lastRequest()
	require.Equal(t, "/update/testnew/demo/linux-x86_64/1.0.0", path)
	require.Equal(t, "channel=beta", query)
	require.Contains(t, userAgent, "release-channels/")
}

// TestClient_Check_Newer returns a handle carrying both versions.
func TestClient_Check_Newer(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)
	host.set(http.StatusOK, Manifest{Version: "1.1.0", Notes: "fixes", URL: host.artifactURL()})

	update, err := newTestClient().Check(context.Background(), host.endpoint(""))
	require.NoError(t, err)
	require.NotNil(t, update)
	require.Equal(t, "1.1.0", update.Version())
	require.Equal(t, "1.0.0", update.CurrentVersion())
	require.Equal(t, &release.Metadata{Version: "1.1.0", CurrentVersion: "1.0.0"}, release.MetadataOf(update))

	// Nothing is downloaded until install.
	_, _, _, downloads := host.lastRequest()
	require.Zero(t, downloads)
}

// TestClient_Check_NotNewer ignores equal and older offers.
func TestClient_Check_NotNewer(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)

	for _, offered := range []string{"1.0.0", "v0.9.9"} {
		host.set(http.StatusOK, Manifest{Version: offered, URL: host.artifactURL()})

		update, err := newTestClient().Check(context.Background(), host.endpoint(""))
		require.NoError(t, err)
		require.Nil(t, update)
	}
}

// TestClient_Check_Platforms selects the artifact from a static multi-platform manifest.
func TestClient_Check_Platforms(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)
	host.set(http.StatusOK, Manifest{
		Version: "2.0.0",
		Platforms: map[string]Asset{
			"darwin-aarch64": {URL: host.URL + "/artifacts/other"},
			"linux-x86_64":   {URL: host.artifactURL()},
		},
	})

	update, err := newTestClient().Check(context.Background(), host.endpoint(""))
	require.NoError(t, err)
	require.Equal(t, host.artifactURL(), update.(*Update).asset.URL)

	// Unknown platform.
	_, err = newTestClient(WithPlatform(Platform{Target: "windows", Arch: "i686"})).
		Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}

// TestClient_Check_Errors maps failures to distinct error kinds.
func TestClient_Check_Errors(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)
	client := newTestClient()

	host.set(http.StatusInternalServerError, nil)
	_, err := client.Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrBadStatus)

	host.set(http.StatusOK, "{not json")
	_, err = client.Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrInvalidManifest)

	host.set(http.StatusOK, Manifest{Version: "not-a-version", URL: host.artifactURL()})
	_, err = client.Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrInvalidManifest)

	host.set(http.StatusOK, Manifest{Version: "3.0.0"})
	_, err = client.Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrInvalidManifest)

	host.set(http.StatusOK, Manifest{Version: "3.0.0", URL: host.artifactURL()})
	_, err = newTestClient(WithCurrentVersion("dev")).Check(context.Background(), host.endpoint(""))
	require.ErrorIs(t, err, ErrInvalidVersion)

	// Closed host.
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	_, err = client.Check(context.Background(), closed.URL+testEndpointPath)
	require.ErrorIs(t, err, ErrTransport)
}

// progressRecorder captures progress notifications.
type progressRecorder struct {
	received []int64
	totals   []int64
	known    []bool
	finished int
}

func (p *progressRecorder) Chunk(received, total int64, known bool) {
	p.received = append(p.received, received)
	p.totals = append(p.totals, total)
	p.known = append(p.known, known)
}

func (p *progressRecorder) Finished() {
	p.finished++
}

// writeTarget creates the binary that the update replaces.
func writeTarget(t *testing.T) string {
	t.Helper()

	target := filepath.Join(t.TempDir(), "demo-app")
	require.NoError(t, os.WriteFile(target, []byte("old build"), DefaultFileMode))

	return target
}

// TestUpdate_DownloadAndInstall streams the artifact, reports progress and replaces the target.
func TestUpdate_DownloadAndInstall(t *testing.T) {
	t.Parallel()

	artifact := make([]byte, 3*chunkSize+17)
	for i := range artifact {
		artifact[i] = byte(i % 251)
	}

	host := newUpdateHost(t)
	host.setArtifact(artifact)
	host.set(http.StatusOK, Manifest{Version: "1.2.0", URL: host.artifactURL()})

	target := writeTarget(t)

	update, err := newTestClient(WithTargetPath(target)).Check(context.Background(), host.endpoint(""))
	require.NoError(t, err)

	progress := new(progressRecorder)
	require.NoError(t, update.DownloadAndInstall(context.Background(), progress))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, artifact, got)

	require.Equal(t, 1, progress.finished)
	require.NotEmpty(t, progress.received)
	require.Equal(t, int64(len(artifact)), progress.received[len(progress.received)-1])
	require.IsNonDecreasing(t, progress.received)

	for i, known := range progress.known {
		if known {
			require.Equal(t, int64(len(artifact)), progress.totals[i])
		}
	}
}

// TestUpdate_DownloadAndInstall_BadStatus leaves the target untouched when the artifact is missing.
func TestUpdate_DownloadAndInstall_BadStatus(t *testing.T) {
	t.Parallel()

	host := newUpdateHost(t)
	host.set(http.StatusOK, Manifest{Version: "1.2.0", URL: host.URL + "/artifacts/missing"})

	target := writeTarget(t)

	update, err := newTestClient(WithTargetPath(target)).Check(context.Background(), host.endpoint(""))
	require.NoError(t, err)

	progress := new(progressRecorder)
	err = update.DownloadAndInstall(context.Background(), progress)
	require.ErrorIs(t, err, ErrBadStatus)
	require.Zero(t, progress.finished)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old build"), got)
}

// artifactUpdate returns an update whose artifact is served by handler.
func artifactUpdate(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Update, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target := writeTarget(t)
	client := newTestClient(append([]Option{WithTargetPath(target)}, opts...)...)

	return &Update{
		client:         client,
		version:        "1.2.0",
		currentVersion: "1.0.0",
		asset:          Asset{URL: srv.URL + "/artifacts/app"},
	}, target
}

// TestUpdate_DownloadAndInstall_DeclaredSizeTooLarge rejects a huge Content-Length before reading.
func TestUpdate_DownloadAndInstall_DeclaredSizeTooLarge(t *testing.T) {
	t.Parallel()

	update, target := artifactUpdate(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.FormatInt(1<<62, 10))
		_, _ = w.Write([]byte("x"))
	})

	progress := new(progressRecorder)

	var err error

	require.NotPanics(t, func() {
		err = update.DownloadAndInstall(context.Background(), progress)
	})
	require.ErrorIs(t, err, ErrInvalidManifest)
	require.Empty(t, progress.received)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old build"), got)
}

// TestUpdate_DownloadAndInstall_BodyTooLarge enforces the cap when no length is declared.
func TestUpdate_DownloadAndInstall_BodyTooLarge(t *testing.T) {
	t.Parallel()

	update, target := artifactUpdate(t, func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 4; i++ {
			_, _ = w.Write([]byte("12345678"))
			w.(http.Flusher).Flush()
		}
	})
	update.client.maxArtifactSize = 10

	progress := new(progressRecorder)
	err := update.DownloadAndInstall(context.Background(), progress)
	require.ErrorIs(t, err, ErrInvalidManifest)
	require.Zero(t, progress.finished)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old build"), got)
}

// TestUpdate_DownloadAndInstall_SlowStream succeeds when the whole transfer outlasts
// the timeout but data keeps arriving.
func TestUpdate_DownloadAndInstall_SlowStream(t *testing.T) {
	t.Parallel()

	update, target := artifactUpdate(t, func(w http.ResponseWriter, _ *http.Request) {
		for _, b := range []string{"a", "b", "c", "d"} {
			_, _ = w.Write([]byte(b))
			w.(http.Flusher).Flush()
			time.Sleep(150 * time.Millisecond)
		}
	}, WithTimeout(300*time.Millisecond))

	progress := new(progressRecorder)
	require.NoError(t, update.DownloadAndInstall(context.Background(), progress))
	require.Equal(t, 1, progress.finished)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), got)
}

// TestUpdate_DownloadAndInstall_Stalled fails once the host stops sending data.
func TestUpdate_DownloadAndInstall_Stalled(t *testing.T) {
	t.Parallel()

	update, target := artifactUpdate(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a"))
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, WithTimeout(100*time.Millisecond))

	err := update.DownloadAndInstall(context.Background(), new(progressRecorder))
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, errStalled)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old build"), got)
}

// TestNew_DownloadClientHasNoTotalTimeout keeps the manifest timeout off artifact transfers.
func TestNew_DownloadClientHasNoTotalTimeout(t *testing.T) {
	t.Parallel()

	c := New(WithTimeout(time.Second))
	require.Equal(t, time.Second, c.httpClient.Timeout)
	require.Zero(t, c.downloadClient.Timeout)

	custom := &http.Client{Timeout: time.Minute}
	c = New(WithHTTPClient(custom))
	require.Same(t, custom, c.httpClient)
	require.Zero(t, c.downloadClient.Timeout)
	require.Equal(t, time.Minute, custom.Timeout)
}

// TestUpdate_Signature verifies artifacts against the configured key.
func TestUpdate_Signature(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	artifact := []byte("new signed build")

	host := newUpdateHost(t)
	host.setArtifact(artifact)

	checksum := sha512.Sum512(artifact)
	goodSignature := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, checksum[:]))
	badSignature := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte("something else")))

	install := func(signature string) (string, error) {
		host.set(http.StatusOK, Manifest{Version: "1.3.0", URL: host.artifactURL(), Signature: signature})

		target := writeTarget(t)

		update, checkErr := newTestClient(WithTargetPath(target), WithPublicKey(pub)).
			Check(context.Background(), host.endpoint(""))
		require.NoError(t, checkErr)

		installErr := update.DownloadAndInstall(context.Background(), nil)

		contents, readErr := os.ReadFile(target)
		require.NoError(t, readErr)

		return string(contents), installErr
	}

	contents, err := install(goodSignature)
	require.NoError(t, err)
	require.Equal(t, "new signed build", contents)

	contents, err = install(badSignature)
	require.Error(t, err)
	require.Equal(t, "old build", contents)

	contents, err = install("")
	require.ErrorIs(t, err, ErrMissingSignature)
	require.Equal(t, "old build", contents)

	contents, err = install("%%%")
	require.ErrorIs(t, err, ErrInvalidManifest)
	require.Equal(t, "old build", contents)
}

// TestEd25519Verifier rejects foreign key types.
func TestEd25519Verifier(t *testing.T) {
	t.Parallel()

	err := ed25519Verifier{}.VerifySignature(nil, nil, DefaultChecksumFunction, "not a key")
	require.ErrorIs(t, err, errUnsupportedKey)
}
