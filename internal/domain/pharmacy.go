package domain

import "fmt"

// PharmacyID 是对外暴露的药房编号（封闭集合 1..6）。
//
// 约束：集合之外的编号必须被识别为“未知药房”，而不是 panic 或回退到某个默认源。
type PharmacyID int

const (
	Monastirev PharmacyID = iota + 1
	AptekaRu
	Apteka25
	Minicen
	Gosapteka
	Ovita
)

var pharmacyNames = map[PharmacyID]string{
	Monastirev: "monastirev",
	AptekaRu:   "aptekaru",
	Apteka25:   "apteka25",
	Minicen:    "minicen",
	Gosapteka:  "gosapteka",
	Ovita:      "ovita",
}

// ParsePharmacyID 校验整数编号是否属于已知药房。
func ParsePharmacyID(n int) (PharmacyID, bool) {
	id := PharmacyID(n)
	if _, ok := pharmacyNames[id]; !ok {
		return 0, false
	}
	return id, true
}

// Pharmacies 按编号升序返回全部已知药房。
func Pharmacies() []PharmacyID {
	return []PharmacyID{Monastirev, AptekaRu, Apteka25, Minicen, Gosapteka, Ovita}
}

func (id PharmacyID) String() string {
	if name, ok := pharmacyNames[id]; ok {
		return name
	}
	return fmt.Sprintf("pharmacy(%d)", int(id))
}
