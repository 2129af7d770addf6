package enum

type ServiceType string

const (
	ServiceTypeFlight  ServiceType = "flight"
	ServiceTypeHotel   ServiceType = "hotel"
	ServiceTypeCruise  ServiceType = "cruise"
	ServiceTypePackage ServiceType = "package"
	ServiceTypeGeneral ServiceType = "general"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeFlight, ServiceTypeHotel, ServiceTypeCruise, ServiceTypePackage, ServiceTypeGeneral:
		return true
	}
	return false
}
