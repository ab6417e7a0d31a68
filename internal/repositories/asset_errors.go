package repositories

import "errors"

// ErrAssetNotReady indicates the object upload has not been confirmed yet, so
// no download URL can be issued.
var ErrAssetNotReady = errors.New("asset repository: asset not ready")
