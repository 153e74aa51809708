package cloudwriter

// CloudWriter buffers an export object and uploads it on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

// CloudWriterFactory creates writers bound to a bucket and object key.
type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
