package rekognition

// Config holds configuration for the AWS Rekognition detector
type Config struct {
	// Region is the AWS region where Rekognition will be used (e.g. "us-east-1")
	Region string

	// MinConfidence filters out detections below this confidence (0-100,
	// Rekognition's native scale)
	MinConfidence float64
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 80,
	}
}
