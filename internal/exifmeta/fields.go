// SPDX-License-Identifier: MIT

package exifmeta

// fieldNames is a diagnostic-only tag ID to name table, trimmed from the
// teacher's metadecoder_exif_fields.go (itself sourced from
// https://exiftool.org/TagNames/EXIF.html) to a set of common tags,
// including those this package's own tests use. It never feeds Decode/Encode's round-trip
// behaviour — only TagName, for callers printing datums.
var fieldNames = map[uint16]string{
	0x010e: "ImageDescription",
	0x010f: "Make",
	0x0110: "Model",
	0x0112: "Orientation",
	0x011a: "XResolution",
	0x011b: "YResolution",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "ModifyDate",
	0x013b: "Artist",
	0x0213: "YCbCrPositioning",
	0x8298: "Copyright",
	0x8769: "ExifIFD",
	0x8825: "GPSInfoIFD",
	0x829a: "ExposureTime",
	0x829d: "FNumber",
	0x8827: "ISO",
	0x9003: "DateTimeOriginal",
	0x9004: "CreateDate",
	0x9201: "ShutterSpeedValue",
	0x9202: "ApertureValue",
	0x9204: "ExposureCompensation",
	0x9206: "SubjectDistance",
	0x9207: "MeteringMode",
	0x9209: "Flash",
	0x920a: "FocalLength",
	0xa002: "ExifImageWidth",
	0xa003: "ExifImageHeight",
	0xa005: "InteropIFD",
	0xa402: "ExposureMode",
	0xa403: "WhiteBalance",
	0xa406: "SceneCaptureType",
	0x0001: "GPSLatitudeRef",
	0x0002: "GPSLatitude",
	0x0003: "GPSLongitudeRef",
	0x0004: "GPSLongitude",
}

// TagName returns the diagnostic name for tag, or "" if it is not in the
// trimmed table.
func TagName(tag uint16) string {
	return fieldNames[tag]
}
