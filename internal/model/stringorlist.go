package model

import "encoding/json"

// StringOrList accepts either a bare JSON string or an array of strings on
// the wire, normalizing to a slice internally. Scope.Repo and the values of
// Scope.EnvMatch both use this shape per the original Python scope model
// (Union[str, List[str]]).
type StringOrList []string

// MarshalJSON renders a single element as a bare string, matching how the
// original producer would have encoded a scalar, and anything else as an
// array.
func (s StringOrList) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = StringOrList(list)
	return nil
}

// Contains reports whether value appears in the list.
func (s StringOrList) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}
