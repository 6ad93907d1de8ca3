package utils

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// PhotoMetadata holds the capture details a classroom photo may carry
type PhotoMetadata struct {
	TakenAt     *int64  `json:"taken_at,omitempty"`
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val := strings.Trim(strings.TrimRight(tag.String(), "\x00"), `"`)
	if val == "" {
		return nil
	}
	return &val
}

// ExtractPhotoMetadata reads EXIF capture details from encoded image bytes.
// Photos without EXIF (screenshots, re-encoded uploads) return an empty
// struct, never an error; missing metadata is not a processing failure.
func ExtractPhotoMetadata(raw []byte) PhotoMetadata {
	var meta PhotoMetadata

	exifData, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return meta
	}

	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)

	if taken, err := exifData.DateTime(); err == nil {
		unix := taken.Unix()
		meta.TakenAt = &unix
	}
	return meta
}
