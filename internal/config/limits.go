package config

const (
	// MaxTitleLength is the maximum length for reflection and album
	// titles. Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxSlugLength is the maximum length for reflection and tag slugs.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxSlugLength = 255

	// MaxExcerptLength is the maximum length for reflection excerpts.
	MaxExcerptLength = 500

	// MaxTagNameLength is the maximum length for a single tag name.
	MaxTagNameLength = 64

	// MaxTagsPerReflection caps how many tags one reflection can carry.
	MaxTagsPerReflection = 20

	// MaxLocationLength is the maximum length for an album location.
	MaxLocationLength = 255

	// MaxCaptionLength is the maximum length for image alt text and captions.
	MaxCaptionLength = 500

	// MaxImagesPerRequest caps how many files one album create/update
	// call may carry.
	MaxImagesPerRequest = 20

	// MaxImageSizeBytes is the maximum size of a single uploaded image.
	MaxImageSizeBytes = 10 << 20 // 10 MiB

	// MaxMultipartMemory is the in-memory buffer for multipart parsing;
	// larger parts spill to temporary files.
	MaxMultipartMemory = 32 << 20 // 32 MiB

	// MaxJSONBodyBytes caps JSON request bodies. Reflections are text,
	// so 1 MiB leaves generous headroom.
	MaxJSONBodyBytes = 1 << 20 // 1 MiB
)
