package config

import "sort"

// Presets are built-in world documents selectable by name wherever a world
// file path is accepted.
var Presets = map[string]string{
	"single": `
<world timestep="0.01">
  <vehicle class="differential" name="r1" pose="0 0 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" max_wheel_speed="20"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
      <controller class="twist" v="0.5" w="0"/>
    </dynamics>
  </vehicle>
</world>`,

	"twowheels": `
<world timestep="0.01">
  <vehicle class="differential" name="circle" pose="0 0 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
      <controller class="twist" v="0.4" w="30"/>
    </dynamics>
  </vehicle>
  <vehicle class="differential" name="tracker" pose="0 -2 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
      <controller class="line" v="0.5" y="-1" ky="1" kyaw="2"/>
    </dynamics>
  </vehicle>
</world>`,

	"carlike": `
world:
  timestep: 0.01
  vehicle:
    - class: ackermann
      name: car
      pose: [0, 0, 0]
      dynamics:
        wheelbase: 2.5
        track_width: 1.5
        max_steer: 30
        wheel_radius: 0.3
        mass: 800
        outline: [[-0.5, -0.9], [3.0, -0.9], [3.0, 0.9], [-0.5, 0.9]]
        controller:
          class: heading
          v: 3
          heading: 90
          max_rate: 30
`,

	"mixed": `
<world timestep="0.01">
  <vehicle class="differential" name="r1" pose="0 0 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
      <controller class="twist" v="0.5" w="20"/>
    </dynamics>
  </vehicle>
  <vehicle class="differential" name="r2" pose="-3 2 -45">
    <dynamics wheel_separation="0.4" wheel_radius="0.08" mass="25"
              outline="-0.3 -0.2; 0.3 -0.2; 0.35 0; 0.3 0.2; -0.3 0.2">
      <controller class="heading" v="0.6" heading="0"/>
    </dynamics>
  </vehicle>
  <vehicle class="ackermann" name="car" pose="0 6 0">
    <dynamics wheelbase="2.5" track_width="1.5" max_steer="30" mass="800"
              outline="-0.5 -0.9; 3.0 -0.9; 3.0 0.9; -0.5 0.9">
      <controller class="line" v="2" y="4" ky="0.3" kyaw="1"/>
    </dynamics>
  </vehicle>
</world>`,
}

func GetPreset(name string) (string, bool) {
	text, ok := Presets[name]
	return text, ok
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
