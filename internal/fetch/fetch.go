package fetch

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "strings"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"
)

// Resolve turns a document reference into a local filesystem path.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via AWS SDK v2)
// cleanup removes any temporary download and is never nil.
func Resolve(ctx context.Context, ref string) (string, func(), error) {
    // Strip optional #page fragment if present
    if i := strings.Index(ref, "#"); i >= 0 {
        ref = ref[:i]
    }

    noop := func() {}

    switch {
    case strings.HasPrefix(ref, "s3://"):
        p, err := downloadS3ToTemp(ctx, ref)
        if err != nil {
            return "", noop, err
        }
        return p, func() { _ = os.Remove(p) }, nil
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        p, err := downloadHTTPToTemp(ctx, ref)
        if err != nil {
            return "", noop, err
        }
        return p, func() { _ = os.Remove(p) }, nil
    case strings.HasPrefix(ref, "file://"):
        return strings.TrimPrefix(ref, "file://"), noop, nil
    default:
        // treat as filesystem path
        return ref, noop, nil
    }
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return "", err
    }
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return "", fmt.Errorf("http %d", resp.StatusCode)
    }
    f, err := os.CreateTemp("", "plandl-*.pdf")
    if err != nil {
        return "", err
    }
    defer f.Close()
    if _, err := io.Copy(f, resp.Body); err != nil {
        _ = os.Remove(f.Name())
        return "", err
    }
    return f.Name(), nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
    // s3://bucket/key
    path := strings.TrimPrefix(s3url, "s3://")
    slash := strings.Index(path, "/")
    if slash <= 0 {
        return "", fmt.Errorf("invalid s3 url: %s", s3url)
    }
    bucket := path[:slash]
    key := path[slash+1:]

    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return "", err
    }
    downloader := manager.NewDownloader(s3.NewFromConfig(cfg))

    // .pdf extension keeps downstream validators happy
    f, err := os.CreateTemp("", "s3plan-*.pdf")
    if err != nil {
        return "", err
    }
    defer f.Close()
    if _, err := downloader.Download(ctx, f, &s3.GetObjectInput{
        Bucket: aws.String(bucket),
        Key:    aws.String(key),
    }); err != nil {
        _ = os.Remove(f.Name())
        return "", err
    }
    log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 document to temp")
    return f.Name(), nil
}
