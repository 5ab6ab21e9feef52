package web

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/scenegraph/scene"
	"github.com/mogaika/scenegraph/scriptlang"
	"github.com/mogaika/scenegraph/utils"
	"github.com/mogaika/scenegraph/utils/gltfutils"
	"github.com/mogaika/scenegraph/webutils"
)

type jsonNode struct {
	Name     string
	Type     string
	Local    mgl32.Mat4
	Global   mgl32.Mat4
	Children []*jsonNode `json:",omitempty"`
}

type jsonComponent struct {
	Name    string
	Kind    string
	Payload mgl32.Vec4
	Euler   *mgl32.Vec3 `json:",omitempty"`
}

type jsonMirror struct {
	Name        string
	IsDirty     int32
	Slots       int
	Count       int
	Kinds       []string
	Names       []string
	Payloads    []mgl32.Vec4
	Fingerprint uint32
}

type jsonCompound struct {
	Name       string
	Components []jsonComponent
	Mirror     *jsonMirror `json:",omitempty"`
	Script     string
}

func marshalNode(t scene.Transform) *jsonNode {
	n := scene.NodeOf(t)
	jn := &jsonNode{
		Name:   n.Name(),
		Type:   "matrix",
		Local:  n.LocalMatrix(),
		Global: n.GlobalMatrix(),
	}
	if _, ok := t.(*scene.Compound); ok {
		jn.Type = "compound"
	}
	for _, child := range n.Children() {
		jn.Children = append(jn.Children, marshalNode(child))
	}
	return jn
}

func (srv *Server) marshalCompound(ct *scene.Compound) *jsonCompound {
	jc := &jsonCompound{
		Name:   ct.Name(),
		Script: scriptlang.RenderCompound(ct),
	}
	for _, c := range ct.Components() {
		jcomp := jsonComponent{
			Name:    c.Name(),
			Kind:    c.Kind().String(),
			Payload: c.Payload(),
		}
		if r, ok := c.AsRotate(); ok {
			e := utils.AxisAngleToEuler(r.Axis(), r.Angle())
			jcomp.Euler = &e
		}
		jc.Components = append(jc.Components, jcomp)
	}
	if m := ct.Mirror(); m != nil {
		jm := &jsonMirror{
			Name:        ct.Context().String(m.Name),
			IsDirty:     m.IsDirty,
			Slots:       m.Slots(),
			Count:       m.Count(),
			Payloads:    m.Payloads,
			Fingerprint: m.Fingerprint(),
		}
		for i, k := range m.Kinds {
			jm.Kinds = append(jm.Kinds, k.String())
			jm.Names = append(jm.Names, ct.Context().String(m.Names[i]))
		}
		jc.Mirror = jm
	}
	return jc
}

func (srv *Server) compound(w http.ResponseWriter, r *http.Request) (*scene.Compound, bool) {
	name := mux.Vars(r)["node"]
	ct, ok := srv.scene.Compound(name)
	if !ok {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("compound %q not found", name))
	}
	return ct, ok
}

func (srv *Server) HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	srv.scene.Update()
	result := struct {
		Name  string
		Nodes []*jsonNode
	}{Name: srv.scene.Name}
	for _, root := range srv.scene.Roots {
		result.Nodes = append(result.Nodes, marshalNode(root))
	}
	webutils.WriteJson(w, result)
}

func (srv *Server) HandlerJsonNode(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	if ct, ok := srv.compound(w, r); ok {
		webutils.WriteJson(w, srv.marshalCompound(ct))
	}
}

func formFloat(r *http.Request, key string) (float32, bool, error) {
	s := r.FormValue(key)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false, errors.Errorf("param %q is not a number: %q", key, s)
	}
	// mirrors are served as json, which has no NaN or Inf
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, errors.Errorf("param %q must be finite: %q", key, s)
	}
	return float32(f), true, nil
}

// readVec3 overrides the fields of v given in the form and reports
// whether any was present.
func readVec3(r *http.Request, v mgl32.Vec3) (mgl32.Vec3, bool, error) {
	present := false
	for i, key := range []string{"x", "y", "z"} {
		f, ok, err := formFloat(r, key)
		if err != nil {
			return v, false, err
		}
		if ok {
			v[i] = f
			present = true
		}
	}
	return v, present, nil
}

// HandlerEditComponent updates one component from the form values x, y,
// z and angle. The edit goes through the typed setters, so the mirror is
// rewritten and uploaded before the response is written.
func (srv *Server) HandlerEditComponent(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	ct, ok := srv.compound(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["component"]
	c, ok := ct.Find(name)
	if !ok {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("component %q not found in %q", name, ct.Name()))
		return
	}

	v, present, err := readVec3(r, c.Payload().Vec3())
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	angle, anglePresent, err := formFloat(r, "angle")
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}

	if rot, ok := c.AsRotate(); ok {
		if present {
			rot.SetAxis(v)
		}
		if anglePresent {
			rot.SetAngle(angle)
		}
		present = present || anglePresent
	} else if anglePresent {
		webutils.WriteErrorCode(w, http.StatusBadRequest, errors.Errorf("%v component %q has no angle", c.Kind(), name))
		return
	} else if t, ok := c.AsTranslate(); ok && present {
		t.SetValue(v)
	} else if s, ok := c.AsScale(); ok && present {
		s.SetValue(v)
	}
	if !present {
		webutils.WriteErrorCode(w, http.StatusBadRequest, errors.New("nothing to change"))
		return
	}

	srv.metrics.Edits.WithLabelValues(ct.Name()).Inc()
	srv.hub.Synced(ct)
	webutils.WriteJson(w, srv.marshalCompound(ct))
}

func (srv *Server) HandlerDumpNode(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	ct, ok := srv.compound(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s\n\n", scriptlang.RenderCompound(ct))
	if m := ct.Mirror(); m != nil {
		fmt.Fprint(w, utils.SDump(m))
		fmt.Fprintf(w, "\n%s\n", utils.DumpToOneLineString(m.Encode()))
	}
}

func (srv *Server) HandlerExportGltf(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	srv.scene.Update()
	doc := gltfutils.NewDocument()
	gltfutils.ExportScene(doc, srv.scene.Roots...)

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export gltf"))
		return
	}
	webutils.WriteFile(w, &buf, srv.scene.Name+".glb")
}
