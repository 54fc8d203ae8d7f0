package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
)

type PermissionsResponse struct {
	Permissions permission.States              `json:"permissions"`
	Decision    permission.Decision            `json:"decision"`
	Hints       map[wifiinfo.Permission]string `json:"hints,omitempty"`
}

type SetPermissionRequestBody struct {
	State wifiinfo.PermissionState `json:"state"`
}

func (t api) permissionsResponse(r *http.Request) (PermissionsResponse, error) {
	states, err := t.gate.States(r.Context())
	if err != nil {
		return PermissionsResponse{}, err
	}
	decision, err := t.gate.Decide(r.Context())
	if err != nil {
		return PermissionsResponse{}, err
	}

	res := PermissionsResponse{Permissions: states, Decision: decision}
	if decision.Action == permission.ShowSettings {
		res.Hints = map[wifiinfo.Permission]string{}
		for _, p := range decision.Permissions {
			res.Hints[p] = permission.SettingsHint(t.consent.Path(), p)
		}
	}
	return res, nil
}

func (t api) getPermissions(w http.ResponseWriter, r *http.Request) {
	res, err := t.permissionsResponse(r)
	if err != nil {
		t.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendResponse(w, res)
}

// Records the user's answer for one permission. The system side
// (polkit, capabilities) still applies on top of it.
func (t api) setPermission(w http.ResponseWriter, r *http.Request) {
	p, err := wifiinfo.ParsePermission(r.PathValue("name"))
	if err != nil {
		sendErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.sendError(w, http.StatusBadRequest, "Error reading request body")
		return
	}
	defer r.Body.Close()

	var requestBody struct {
		State *wifiinfo.PermissionState `json:"state"`
	}
	if err := json.Unmarshal(body, &requestBody); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Error parsing payload: %s", err))
		return
	}
	if requestBody.State == nil {
		sendErrorResponse(w, http.StatusBadRequest, "Missing state")
		return
	}
	state := *requestBody.State

	if err := t.consent.Set(p, state); err != nil {
		t.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	t.log.WithField("permission", p).Infof("consent set to %s", state)

	res, err := t.permissionsResponse(r)
	if err != nil {
		t.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendResponse(w, res)
}

// Forgets the user's answer, so the next scan asks again.
func (t api) resetPermission(w http.ResponseWriter, r *http.Request) {
	p, err := wifiinfo.ParsePermission(r.PathValue("name"))
	if err != nil {
		sendErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	if err := t.consent.Reset(p); err != nil {
		t.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	t.log.WithField("permission", p).Info("consent reset")

	res, err := t.permissionsResponse(r)
	if err != nil {
		t.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendResponse(w, res)
}
