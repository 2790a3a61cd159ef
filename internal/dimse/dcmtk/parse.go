package dcmtk

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
)

// parseInstance decodes a stored composite object into the validated record
// the receiver consumes: patient and study attributes plus a flattened
// native pixel buffer.
func parseInstance(path string) (dimse.Instance, error) {
	var instance dimse.Instance

	dataset, err := dicom.ParseFile(path, nil)
	if err != nil {
		return instance, fmt.Errorf("parse %s: %w", path, err)
	}

	instance = dimse.Instance{
		SOPInstanceUID: stringValue(dataset, tag.SOPInstanceUID),
		PatientName:    stringValue(dataset, tag.PatientName),
		PatientID:      stringValue(dataset, tag.PatientID),
		StudyDate:      stringValue(dataset, tag.StudyDate),
		StudyTime:      stringValue(dataset, tag.StudyTime),
		Protocol:       stringValue(dataset, tag.ProtocolName),
		Path:           path,
	}
	if instance.SOPInstanceUID == "" {
		return instance, fmt.Errorf("%s: missing SOPInstanceUID", path)
	}

	element, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return instance, fmt.Errorf("%s: no pixel data element: %w", path, err)
	}
	info := dicom.MustGetPixelDataInfo(element.Value)
	if len(info.Frames) == 0 {
		return instance, fmt.Errorf("%s: pixel data has no frames", path)
	}

	// Single-frame objects only; the pipeline relays one raster per instance.
	native, err := info.Frames[0].GetNativeFrame()
	if err != nil {
		return instance, fmt.Errorf("%s: native frame: %w", path, err)
	}
	if len(native.Data) == 0 || len(native.Data[0]) == 0 {
		return instance, fmt.Errorf("%s: empty native frame", path)
	}

	channels := len(native.Data[0])
	pixels := make([]int, 0, len(native.Data)*channels)
	for _, sample := range native.Data {
		pixels = append(pixels, sample...)
	}

	instance.Rows = native.Rows
	instance.Cols = native.Cols
	instance.Channels = channels
	instance.BitDepth = native.BitsPerSample
	instance.Pixels = pixels
	return instance, nil
}

func stringValue(dataset dicom.Dataset, t tag.Tag) string {
	element, err := dataset.FindElementByTag(t)
	if err != nil {
		return ""
	}
	values, ok := element.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
