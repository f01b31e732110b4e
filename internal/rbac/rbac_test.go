package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role, perm string
		want       bool
	}{
		{RoleOperator, PermDelete, true},
		{RoleEditor, PermGenerate, true},
		{RoleEditor, PermDelete, false},
		{RoleViewer, PermRead, true},
		{RoleViewer, PermEdit, false},
		{"intern", PermRead, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}
