// Package dcmtk adapts the DCMTK command line toolkit to the dimse
// interfaces. findscu and movescu carry query/retrieve traffic, storescp
// accepts incoming transfers into a watched directory, and received
// composite objects are decoded before being handed to the store handler.
// The DICOM upper layer state machine stays inside the toolkit.
package dcmtk
