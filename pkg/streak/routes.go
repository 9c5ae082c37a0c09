package streak

import (
	"fmt"
	"net/url"
	"strconv"
)

// APIVersion names one of Streak's two API generations.
type APIVersion string

const (
	// V1 is the legacy API generation.
	V1 APIVersion = "v1"
	// V2 is the current API generation.
	V2 APIVersion = "v2"
)

// apiPath prefixes path with the base path of version.
func apiPath(version APIVersion, path string) string {
	return fmt.Sprintf("/api/%s%s", version, path)
}

// Endpoints that exist in only one generation are pinned here so callers
// never choose a version for them.
func searchPath(query string) string {
	return apiPath(V1, "/search?query="+url.QueryEscape(query))
}

func boxPath(boxKey string) string {
	return apiPath(V1, "/boxes/"+url.PathEscape(boxKey))
}

func threadsPath(boxKey string) string {
	return apiPath(V1, "/boxes/"+url.PathEscape(boxKey)+"/threads")
}

func timelinePath(boxKey string, limit int) string {
	p := apiPath(V2, "/boxes/"+url.PathEscape(boxKey)+"/timeline")
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	return p
}

func contactPath(contactKey string) string {
	return apiPath(V2, "/contacts/"+url.PathEscape(contactKey))
}

// Endpoints present in both generations, under different resource names.
func contactBoxesPath(version APIVersion, contactKey string) string {
	if version == V1 {
		return apiPath(V1, "/people/"+url.PathEscape(contactKey)+"/boxes")
	}
	return apiPath(V2, "/contacts/"+url.PathEscape(contactKey)+"/boxes")
}

func stagesPath(version APIVersion, pipelineKey string) string {
	return apiPath(version, "/pipelines/"+url.PathEscape(pipelineKey)+"/stages")
}
