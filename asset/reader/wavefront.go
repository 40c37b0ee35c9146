package reader

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/octrace/asset"
	"github.com/achilleasa/octrace/log"
	"github.com/achilleasa/octrace/mesh"
	"github.com/achilleasa/octrace/types"
	"github.com/pkg/errors"
)

// Identifies a unique combination of position, uv and normal indices
// referenced by a face. Missing uv or normal indices are set to -1.
type vertexKey struct {
	position int
	uv       int
	normal   int
}

type wavefrontReader struct {
	logger log.Logger

	// The mesh being assembled. All objects and included files are merged
	// into a single mesh.
	mesh *mesh.Mesh

	// Maps face vertex references to mesh vertex indices.
	vertexMap map[vertexKey]uint32

	// Set when at least one face references a normal/uv.
	hasNormals bool
	hasUVs     bool

	camera *asset.Camera

	// Names of the parsed objects.
	objects []string

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// files include other files.
	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:     log.New("wavefront reader"),
		vertexMap:  make(map[vertexKey]uint32),
		vertexList: make([]types.Vec3, 0),
		normalList: make([]types.Vec3, 0),
		uvList:     make([]types.Vec2, 0),
		errStack:   make([]string, 0),
	}
}

// Read a model from a wavefront OBJ file.
func (r *wavefrontReader) Read(res *asset.Resource) (*asset.Model, error) {
	r.logger.Noticef(`parsing model from "%s"`, res.Path())
	start := time.Now()

	name := res.Name()
	r.mesh = mesh.New(strings.TrimSuffix(name, filepath.Ext(name)))

	if err := r.parse(res); err != nil {
		return nil, err
	}

	if len(r.objects) != 0 {
		r.mesh.Name = r.objects[0]
	}

	// Vertex attributes are either defined for all vertices or for none.
	if !r.hasNormals {
		r.mesh.Normals = nil
	}
	if !r.hasUVs {
		r.mesh.UVs = nil
	}

	r.logger.Noticef(
		"parsed model in %d ms: %d objects, %d vertices, %d triangles",
		time.Since(start).Nanoseconds()/1e6, len(r.objects), len(r.mesh.Vertices), len(r.mesh.Faces),
	)

	return &asset.Model{
		Mesh:   r.mesh,
		Camera: r.camera,
	}, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Get the camera, allocating one with default settings on first use.
func (r *wavefrontReader) cameraSettings() *asset.Camera {
	if r.camera == nil {
		r.camera = asset.NewCamera()
	}
	return r.camera
}

// Parse the wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int
	var err error

	// Included files use 1-based indices relative to their own vertex
	// lists so we track the list lengths at the point of inclusion.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))
			if err = r.include(lineTokens[1], res); err != nil {
				return err
			}
			r.popFrame()
		case "mtllib", "usemtl":
			r.logger.Infof("%s:%d: ignoring %q directive; materials are not supported", res.Path(), lineNum, lineTokens[0])
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.objects = append(r.objects, lineTokens[1])
		case "f":
			if err = r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_fov":
			r.cameraSettings().FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_eye":
			r.cameraSettings().Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_look":
			r.cameraSettings().Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_up":
			r.cameraSettings().Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Parse an included object file.
func (r *wavefrontReader) include(pathToFile string, parent *asset.Resource) error {
	incRes, err := asset.NewResource(pathToFile, parent)
	if err != nil {
		return r.emitError("", 0, "%s", err.Error())
	}
	defer incRes.Close()

	return r.parse(incRes)
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/uv/normal list. Quads are split into two triangles.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var keys [4]vertexKey
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := vertexKey{uv: -1, normal: -1}
		var err error
		key.position, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		if expIndices > 1 && vTokens[1] != "" {
			key.uv, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		if expIndices > 2 && vTokens[2] != "" {
			key.normal, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}

		keys[arg] = key
	}

	triangles := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		triangles = append(triangles, [3]int{0, 2, 3})
	}

	for _, tri := range triangles {
		// Vertices without a normal receive the face normal.
		p0, p1, p2 := r.vertexList[keys[tri[0]].position], r.vertexList[keys[tri[1]].position], r.vertexList[keys[tri[2]].position]
		faceNormal := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()

		var face [3]uint32
		for corner, selectIndex := range tri {
			face[corner] = r.meshVertex(keys[selectIndex], faceNormal)
		}
		r.mesh.Faces = append(r.mesh.Faces, face)
	}

	return nil
}

// Get the mesh vertex index for a face vertex reference, appending a new
// vertex the first time a reference is seen.
func (r *wavefrontReader) meshVertex(key vertexKey, faceNormal types.Vec3) uint32 {
	if index, exists := r.vertexMap[key]; exists {
		return index
	}

	index := uint32(len(r.mesh.Vertices))
	r.mesh.Vertices = append(r.mesh.Vertices, r.vertexList[key.position])

	normal := faceNormal
	if key.normal != -1 {
		normal = r.normalList[key.normal]
		r.hasNormals = true
	}
	r.mesh.Normals = append(r.mesh.Normals, normal)

	var uv types.Vec2
	if key.uv != -1 {
		uv = r.uvList[key.uv]
		r.hasUVs = true
	}
	r.mesh.UVs = append(r.mesh.UVs, uv)

	r.vertexMap[key] = index
	return index
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
