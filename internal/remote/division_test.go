package remote

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDivisionByName(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/API/2.0/Data/EmployeeManagement/EmployeeDivision/Default", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("where") == "Path='Corporate/EMEA'" {
			writeJSON(t, w, entityListResponse{Data: []EntityRef{{ID: "EmployeeDivision/Default:3"}}})
			return
		}
		writeJSON(t, w, entityListResponse{})
	})
	svc := NewDivisionService(testLogger(), newTestDataService(t, router))

	t.Run("found by path", func(t *testing.T) {
		ref, err := svc.GetDivisionByName(context.Background(), "Corporate/EMEA", "tok")
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Equal(t, "EmployeeDivision/Default:3", ref.ID)
	})

	t.Run("missing division returns nil, never created", func(t *testing.T) {
		ref, err := svc.GetDivisionByName(context.Background(), "Corporate/Mars", "tok")
		require.NoError(t, err)
		assert.Nil(t, ref)
	})
}

func TestDepartmentService(t *testing.T) {
	var created map[string]interface{}
	router := mux.NewRouter()
	router.HandleFunc("/API/2.0/Data/EmployeeManagement/EmployeeDepartment/Default", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created = decodeBody(t, r)
			writeJSON(t, w, CreateResponse{ID: "EmployeeDepartment/Default:8"})
			return
		}
		// The lookup matches either the department number or its name.
		if r.URL.Query().Get("where") == "((DeptNum='Finance')|(DeptName='Finance'))" {
			writeJSON(t, w, entityListResponse{Data: []EntityRef{{ID: "EmployeeDepartment/Default:4"}}})
			return
		}
		writeJSON(t, w, entityListResponse{})
	})
	svc := NewDepartmentService(testLogger(), newTestDataService(t, router))

	t.Run("get matches number or name", func(t *testing.T) {
		ref, err := svc.GetDepartment(context.Background(), "Finance", "tok")
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Equal(t, "EmployeeDepartment/Default:4", ref.ID)
	})

	t.Run("create fills number and name with the division", func(t *testing.T) {
		ref, err := svc.CreateDepartment(context.Background(), "Payroll", Ref("EmployeeDivision/Default:3"), "tok")
		require.NoError(t, err)
		assert.Equal(t, "EmployeeDepartment/Default:8", ref.ID)
		assert.Equal(t, "Payroll", created["DeptNum"])
		assert.Equal(t, "Payroll", created["DeptName"])
		assert.Equal(t, "EmployeeDivision/Default:3", created["Division"].(map[string]interface{})["id"])
	})
}

func TestLookupService(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/API/2.0/Data/Lookup/Employee/JobTitleId", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			body := decodeBody(t, r)
			assert.Equal(t, "Engineer", body["Text"])
			writeJSON(t, w, CreateResponse{ID: "Lookup/Employee:JobTitleId:6"})
			return
		}
		if r.URL.Query().Get("where") == "Text='Engineer'" {
			writeJSON(t, w, entityListResponse{Data: []EntityRef{{ID: "Lookup/Employee:JobTitleId:6"}}})
			return
		}
		writeJSON(t, w, entityListResponse{})
	})
	svc := NewLookupService(testLogger(), newTestDataService(t, router))

	ref, err := svc.GetLookupValue(context.Background(), "JobTitleId", "Engineer", "tok")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "Lookup/Employee:JobTitleId:6", ref.ID)

	ref, err = svc.GetLookupValue(context.Background(), "JobTitleId", "Astronaut", "tok")
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = svc.CreateLookupValue(context.Background(), "JobTitleId", "Engineer", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Lookup/Employee:JobTitleId:6", ref.ID)
}
