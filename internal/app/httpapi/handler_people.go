package httpapi

import (
	"net/http"

	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
)

// users

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Users.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a new user", u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Users.Update(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a user", u)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Users.List(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all users", page)
}

// changePassword always applies to the signed-in account.
func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := security.PrincipalFrom(r.Context())
	if !ok {
		writeErr(w, r, h.log, errors.Unauthorized("authentication is required"))
		return
	}
	req := changePasswordRequest{UserID: p.UserID}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	req.UserID = p.UserID
	if _, err := h.app.Users.ChangePassword(r.Context(), req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "change password", nil)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Users.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch user by id", u)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Users.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a user", nil)
}

func (h *handler) restoreUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Users.Restore(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "restore a user", u)
}

// roles

func (h *handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.CreateRole(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a role", out)
}

func (h *handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.UpdateRole(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a role", out)
}

func (h *handler) listRoles(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Roles.ListRoles(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all roles", page)
}

func (h *handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.GetRole(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch role by id", out)
}

func (h *handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Roles.DeleteRole(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a role", nil)
}

// permissions

func (h *handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.CreatePermission(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a permission", out)
}

func (h *handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.UpdatePermission(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a permission", out)
}

func (h *handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Roles.ListPermissions(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all permissions", page)
}

func (h *handler) getPermission(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Roles.GetPermission(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch permission by id", out)
}

func (h *handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Roles.DeletePermission(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a permission", nil)
}
