/*
Package vehiclecount counts vehicles crossing a virtual line in a video
stream.

A Processor owns one video session: it decodes frames from a file or
webcam, detects vehicles with a YOLO model through the OpenCV DNN module,
tracks them across frames with a ByteTrack style tracker and feeds the
tracked boxes to a line crossing counter that maintains per class in, out
and inventory tallies.  Crossing events can be persisted to a CSV report
and a SQLite database, and annotated frames can be served as an MJPEG
stream over HTTP.
*/
package vehiclecount
